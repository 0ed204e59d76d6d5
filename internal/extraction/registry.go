package extraction

import (
	"fmt"
	"strings"
)

// Registry is an ordered, read-only collection of field specs.
type Registry struct {
	specs []FieldSpec
	byID  map[string]int
}

// NewRegistry builds a registry, rejecting duplicate ids and specs without patterns.
func NewRegistry(specs ...FieldSpec) (*Registry, error) {
	r := &Registry{byID: make(map[string]int, len(specs))}
	for _, s := range specs {
		if s.ID == "" {
			return nil, fmt.Errorf("field spec has empty id")
		}
		if len(s.Patterns) == 0 {
			return nil, fmt.Errorf("field %s has no patterns", s.ID)
		}
		if _, dup := r.byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate field id %s", s.ID)
		}
		r.byID[s.ID] = len(r.specs)
		r.specs = append(r.specs, s)
	}
	return r, nil
}

// Specs returns every spec in declaration order.
func (r *Registry) Specs() []FieldSpec {
	return append([]FieldSpec(nil), r.specs...)
}

// Select returns the specs for ids, in the order given. Unknown ids are skipped.
func (r *Registry) Select(ids ...string) []FieldSpec {
	out := make([]FieldSpec, 0, len(ids))
	for _, id := range ids {
		if i, ok := r.byID[id]; ok {
			out = append(out, r.specs[i])
		}
	}
	return out
}

// Lookup returns the spec for id.
func (r *Registry) Lookup(id string) (FieldSpec, bool) {
	i, ok := r.byID[id]
	if !ok {
		return FieldSpec{}, false
	}
	return r.specs[i], true
}

// Len returns the number of specs.
func (r *Registry) Len() int {
	return len(r.specs)
}

// sep matches either separator form used after labels.
const sep = `[：:]`

// strictAndLenient returns a strict label pattern requiring a separator and a
// lenient one where the separator is optional.
func strictAndLenient(label, value string) []Pattern {
	return []Pattern{
		MustPattern(label+sep+`\s*`, value),
		MustPattern(label+`\s*`+sep+`?\s*`, value),
	}
}

func one(label, value string, stops ...string) []Pattern {
	return []Pattern{MustPattern(label, value, stops...)}
}

func appendAgeUnit(s string) string {
	return s + "岁"
}

var defaultRegistry = func() *Registry {
	r, err := NewRegistry(
		FieldSpec{ID: FieldAccession, Label: "检测号",
			Patterns: one(`检测号`+sep+`\s*`, `[A-Za-z0-9]+`)},
		FieldSpec{ID: FieldReportVersion, Label: "报告系统版本号",
			Patterns: one(`报告系统版本号\s*`, `[A-Za-z0-9\s.]+`, `\s+生信分析版本号`)},
		FieldSpec{ID: FieldPipelineVersion, Label: "生信分析版本号",
			Patterns: one(`生信分析版本号\s*`, `[A-Za-z0-9\s.]+`, `\s+上机号`)},
		FieldSpec{ID: FieldRunNumber, Label: "上机号",
			Patterns: one(`上机号`+sep+`\s*`, `\d+`)},
		FieldSpec{ID: FieldName, Label: "姓名",
			Patterns: strictAndLenient(`姓\s*名`, `\S+`)},
		FieldSpec{ID: FieldSex, Label: "性别",
			Patterns: strictAndLenient(`性\s*别`, `[男女]`)},
		FieldSpec{ID: FieldAge, Label: "年龄",
			Patterns: strictAndLenient(`年\s*龄`, `\d+`),
			Post:     appendAgeUnit},
		FieldSpec{ID: FieldSamplingDate, Label: "采样日期",
			Patterns: one(`采样日期`+sep+`\s*`, `\d{4}-\d{2}-\d{2}`)},
		FieldSpec{ID: FieldSpecimenType, Label: "标本类型",
			Patterns: one(`标本类型`+sep+`\s*`, `.+`, `\s+住院号`, `\s+病理号`, `\n`)},
		FieldSpec{ID: FieldAdmissionNumber, Label: "住院号",
			Patterns: one(`住院号`+sep+`\s*`, `\S+`)},
		FieldSpec{ID: FieldPathologyNumber, Label: "病理号",
			Patterns: one(`病理号`+sep+`\s*`, `\S+`)},
		FieldSpec{ID: FieldIDNumber, Label: "身份证号",
			Patterns: one(`身\s*份\s*证\s*号`+sep+`\s*`, `.+`, `\s+姓\s*名`, `\s+送\s*检`, `\n`),
			Post:     NormalizeIDNumber,
			Check:    IsValidIDNumber,
			Fallback: FindIDNumber},
		FieldSpec{ID: FieldSubmissionDate, Label: "送检日期",
			Patterns: one(`送检日期`+sep+`\s*`, `\d{4}-\d{2}-\d{2}`)},
		FieldSpec{ID: FieldMedicalRecordNumber, Label: "病历号",
			Patterns: one(`病历号`+sep+`\s*`, `\d+`)},
		FieldSpec{ID: FieldReferringClinician, Label: "送检医生",
			Patterns: one(`送检医生`+sep+`\s*`, `\S+`)},
		FieldSpec{ID: FieldReferringUnit, Label: "送检单位",
			Patterns: one(`送检单位`+sep+`\s*`, `.+`, `\s+身份证号`, `\n`),
			Post:     StripIDNumbers},
		FieldSpec{ID: FieldTestItem, Label: "检测项目",
			Patterns: one(`检测项目`+sep+`\s*`, `.+`)},
		FieldSpec{ID: FieldTestMethod, Label: "检测方法",
			Patterns: one(`检测方法`+sep+`\s*`, `.+`)},
		FieldSpec{ID: FieldSpecimenMaterial, Label: "送检材料",
			Patterns: one(`送检材料`+sep+`\s*`, `.+`)},
		FieldSpec{ID: FieldClinicalDiagnosis, Label: "临床诊断",
			Patterns: one(`临床诊断`+sep+`\s*`, `.+`)},
	)
	if err != nil {
		panic(err)
	}
	return r
}()

// DefaultRegistry returns the built-in field registry for clinical reports.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// FieldLabels lists "id (label)" for every field in r, for help output.
func (r *Registry) FieldLabels() string {
	parts := make([]string, len(r.specs))
	for i, s := range r.specs {
		parts[i] = fmt.Sprintf("%s (%s)", s.ID, s.Label)
	}
	return strings.Join(parts, ", ")
}
