package db

import "github.com/shopspring/decimal"

// AssignmentPatch carries the fields of an assignment upsert or update.
// Only set fields are written; everything else keeps its stored value.
type AssignmentPatch struct {
	ProjectName  Optional[string]           `yaml:"projectName"`
	PlannedStart Optional[string]           `yaml:"plannedStart"`
	PlannedEnd   Optional[string]           `yaml:"plannedEnd"`
	ActualStart  Optional[string]           `yaml:"actualStart"`
	ActualEnd    Optional[string]           `yaml:"actualEnd"`
	Status       Optional[AssignmentStatus] `yaml:"status"`
	Hours        Optional[decimal.Decimal]  `yaml:"hours"`
	Comment      Optional[string]           `yaml:"comment"`
}

// IsEmpty reports whether no field is set
func (p AssignmentPatch) IsEmpty() bool {
	return !p.ProjectName.IsSet() &&
		!p.PlannedStart.IsSet() &&
		!p.PlannedEnd.IsSet() &&
		!p.ActualStart.IsSet() &&
		!p.ActualEnd.IsSet() &&
		!p.Status.IsSet() &&
		!p.Hours.IsSet() &&
		!p.Comment.IsSet()
}

// Over returns p with every field it leaves unset taken from base
func (p AssignmentPatch) Over(base AssignmentPatch) AssignmentPatch {
	return AssignmentPatch{
		ProjectName:  p.ProjectName.Or(base.ProjectName),
		PlannedStart: p.PlannedStart.Or(base.PlannedStart),
		PlannedEnd:   p.PlannedEnd.Or(base.PlannedEnd),
		ActualStart:  p.ActualStart.Or(base.ActualStart),
		ActualEnd:    p.ActualEnd.Or(base.ActualEnd),
		Status:       p.Status.Or(base.Status),
		Hours:        p.Hours.Or(base.Hours),
		Comment:      p.Comment.Or(base.Comment),
	}
}

// ActivityPatch carries a partial update of one activity record
type ActivityPatch struct {
	Label   Optional[string]          `yaml:"label"`
	Hours   Optional[decimal.Decimal] `yaml:"hours"`
	Comment Optional[string]          `yaml:"comment"`
}

// IsEmpty reports whether no field is set
func (p ActivityPatch) IsEmpty() bool {
	return !p.Label.IsSet() && !p.Hours.IsSet() && !p.Comment.IsSet()
}

// Over returns p with every field it leaves unset taken from base
func (p ActivityPatch) Over(base ActivityPatch) ActivityPatch {
	return ActivityPatch{
		Label:   p.Label.Or(base.Label),
		Hours:   p.Hours.Or(base.Hours),
		Comment: p.Comment.Or(base.Comment),
	}
}
