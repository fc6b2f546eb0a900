package models

// RuleKind identifies a constraint evaluated by the allocator.
type RuleKind string

const (
	RuleFacultyClash  RuleKind = "faculty_clash"
	RuleRoomClash     RuleKind = "room_clash"
	RuleCapacityCheck RuleKind = "capacity_check"
	RuleLabTiming     RuleKind = "lab_timing"
	RuleFacultyLoad   RuleKind = "faculty_load"
)

// ConstraintRule is a catalog row. Mandatory rules block assignment; the
// others are reported only.
type ConstraintRule struct {
	ID          string   `db:"id" json:"id"`
	Kind        RuleKind `db:"rule_type" json:"rule_type"`
	IsMandatory bool     `db:"is_mandatory" json:"is_mandatory"`
	Description string   `db:"description" json:"description"`
}
