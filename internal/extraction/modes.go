package extraction

import (
	"fmt"
	"strings"
)

// Mode selects which output schema an extraction produces.
type Mode string

const (
	ModeBasic         Mode = "basic"
	ModeRearrangement Mode = "rearrangement"
	ModeMutation      Mode = "mutation"
)

// Field ids double as column keys in every mode.
const (
	FieldAccession           = "accession"
	FieldReportVersion       = "report_version"
	FieldPipelineVersion     = "pipeline_version"
	FieldRunNumber           = "run_number"
	FieldName                = "name"
	FieldSex                 = "sex"
	FieldAge                 = "age"
	FieldSamplingDate        = "sampling_date"
	FieldSpecimenType        = "specimen_type"
	FieldAdmissionNumber     = "admission_number"
	FieldPathologyNumber     = "pathology_number"
	FieldIDNumber            = "id_number"
	FieldSubmissionDate      = "submission_date"
	FieldMedicalRecordNumber = "medical_record_number"
	FieldReferringClinician  = "referring_clinician"
	FieldReferringUnit       = "referring_unit"
	FieldTestItem            = "test_item"
	FieldTestMethod          = "test_method"
	FieldSpecimenMaterial    = "specimen_material"
	FieldClinicalDiagnosis   = "clinical_diagnosis"
)

// Table column keys.
const (
	ColumnRearrangedGene   = "rearranged_gene"
	ColumnLeftBreakpoint   = "left_breakpoint"
	ColumnRightBreakpoint  = "right_breakpoint"
	ColumnMutatedGene      = "mutated_gene"
	ColumnTranscriptID     = "transcript_id"
	ColumnExon             = "exon"
	ColumnNucleotideChange = "nucleotide_change"
	ColumnAminoAcidChange  = "amino_acid_change"
	ColumnVariantFrequency = "variant_frequency"
)

var basicColumns = []Column{
	{FieldAccession, "检测号"},
	{FieldReportVersion, "报告系统版本号"},
	{FieldPipelineVersion, "生信分析版本号"},
	{FieldRunNumber, "上机号"},
	{FieldName, "姓名"},
	{FieldSex, "性别"},
	{FieldAge, "年龄"},
	{FieldSamplingDate, "采样日期"},
	{FieldSpecimenType, "标本类型"},
	{FieldAdmissionNumber, "住院号"},
	{FieldPathologyNumber, "病理号"},
	{FieldIDNumber, "身份证号"},
	{FieldSubmissionDate, "送检日期"},
	{FieldMedicalRecordNumber, "病历号"},
	{FieldReferringClinician, "送检医生"},
	{FieldReferringUnit, "送检单位"},
	{FieldTestItem, "检测项目"},
	{FieldTestMethod, "检测方法"},
	{FieldSpecimenMaterial, "送检材料"},
	{FieldClinicalDiagnosis, "临床诊断"},
}

var rearrangementColumns = []Column{
	{FieldName, "姓名"},
	{FieldAccession, "检测号"},
	{ColumnRearrangedGene, "重排基因"},
	{ColumnLeftBreakpoint, "左断裂点位"},
	{ColumnRightBreakpoint, "右断裂点位"},
}

var mutationColumns = []Column{
	{FieldAccession, "检测号"},
	{ColumnMutatedGene, "突变基因"},
	{ColumnTranscriptID, "转录本 ID"},
	{ColumnExon, "外显子"},
	{ColumnNucleotideChange, "核苷酸改变"},
	{ColumnAminoAcidChange, "氨基酸改变"},
	{ColumnVariantFrequency, "突变频率"},
}

// Modes returns all extraction modes in display order.
func Modes() []Mode {
	return []Mode{ModeBasic, ModeRearrangement, ModeMutation}
}

// ParseMode converts a user supplied name into a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeBasic, ModeRearrangement, ModeMutation:
		return m, nil
	case "":
		return ModeBasic, nil
	default:
		return "", fmt.Errorf("unknown report mode %q (must be one of: basic, rearrangement, mutation)", s)
	}
}

// Columns returns the fixed output column order for the mode.
func (m Mode) Columns() []Column {
	var cols []Column
	switch m {
	case ModeBasic:
		cols = basicColumns
	case ModeRearrangement:
		cols = rearrangementColumns
	case ModeMutation:
		cols = mutationColumns
	}
	return append([]Column(nil), cols...)
}

// Description returns a one-line summary of what the mode extracts.
func (m Mode) Description() string {
	switch m {
	case ModeBasic:
		return "Demographic and administrative fields, one record per report"
	case ModeRearrangement:
		return "Gene rearrangement table rows with breakpoints"
	case ModeMutation:
		return "Mutation table rows with transcript, exon, HGVS changes and frequency"
	default:
		return ""
	}
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeBasic, ModeRearrangement, ModeMutation:
		return true
	}
	return false
}
