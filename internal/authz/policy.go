// Package authz holds the capability matrix and the scope guard that every
// family-scoped handler consults before touching data.
package authz

// Resource kinds that carry a family id.
type Resource string

const (
	ResourceFamily        Resource = "family"
	ResourceEvent         Resource = "event"
	ResourceMedicationLog Resource = "medication_log"
	ResourceDocument      Resource = "document"
	ResourceMessage       Resource = "message"
	ResourceTimeEntry     Resource = "time_entry"
	ResourcePayRate       Resource = "pay_rate"
)

type Action string

const (
	ActionRead          Action = "read"
	ActionCreate        Action = "create"
	ActionUpdate        Action = "update"
	ActionDelete        Action = "delete"
	ActionManageMembers Action = "manage_members"
)

type capability struct {
	resource Resource
	action   Action
}

// capabilities maps role -> allowed (resource, action) pairs. Anything not
// listed is denied. Owners get full control including destructive
// family-level actions; members get full control over shared content but
// cannot destroy the family or remove members; caregivers read everything
// and write only their own operational records (dose logs, time entries,
// messages).
var capabilities = map[string]map[capability]bool{
	"owner": {
		{ResourceFamily, ActionRead}:          true,
		{ResourceFamily, ActionCreate}:        true,
		{ResourceFamily, ActionUpdate}:        true,
		{ResourceFamily, ActionDelete}:        true,
		{ResourceFamily, ActionManageMembers}: true,

		{ResourceEvent, ActionRead}:   true,
		{ResourceEvent, ActionCreate}: true,
		{ResourceEvent, ActionUpdate}: true,
		{ResourceEvent, ActionDelete}: true,

		{ResourceMedicationLog, ActionRead}:   true,
		{ResourceMedicationLog, ActionCreate}: true,
		{ResourceMedicationLog, ActionUpdate}: true,
		{ResourceMedicationLog, ActionDelete}: true,

		{ResourceDocument, ActionRead}:   true,
		{ResourceDocument, ActionCreate}: true,
		{ResourceDocument, ActionUpdate}: true,
		{ResourceDocument, ActionDelete}: true,

		{ResourceMessage, ActionRead}:   true,
		{ResourceMessage, ActionCreate}: true,
		{ResourceMessage, ActionUpdate}: true,
		{ResourceMessage, ActionDelete}: true,

		{ResourceTimeEntry, ActionRead}:   true,
		{ResourceTimeEntry, ActionCreate}: true,
		{ResourceTimeEntry, ActionUpdate}: true,
		{ResourceTimeEntry, ActionDelete}: true,

		{ResourcePayRate, ActionRead}:   true,
		{ResourcePayRate, ActionCreate}: true,
		{ResourcePayRate, ActionUpdate}: true,
		{ResourcePayRate, ActionDelete}: true,
	},
	"member": {
		{ResourceFamily, ActionRead}:   true,
		{ResourceFamily, ActionCreate}: true,

		{ResourceEvent, ActionRead}:   true,
		{ResourceEvent, ActionCreate}: true,
		{ResourceEvent, ActionUpdate}: true,
		{ResourceEvent, ActionDelete}: true,

		{ResourceMedicationLog, ActionRead}:   true,
		{ResourceMedicationLog, ActionCreate}: true,
		{ResourceMedicationLog, ActionUpdate}: true,
		{ResourceMedicationLog, ActionDelete}: true,

		{ResourceDocument, ActionRead}:   true,
		{ResourceDocument, ActionCreate}: true,
		{ResourceDocument, ActionUpdate}: true,
		{ResourceDocument, ActionDelete}: true,

		{ResourceMessage, ActionRead}:   true,
		{ResourceMessage, ActionCreate}: true,
		{ResourceMessage, ActionUpdate}: true,
		{ResourceMessage, ActionDelete}: true,

		{ResourceTimeEntry, ActionRead}:   true,
		{ResourceTimeEntry, ActionCreate}: true,
		{ResourceTimeEntry, ActionUpdate}: true,
		{ResourceTimeEntry, ActionDelete}: true,

		{ResourcePayRate, ActionRead}: true,
	},
	"caregiver": {
		{ResourceFamily, ActionRead}:   true,
		{ResourceFamily, ActionCreate}: true,

		{ResourceEvent, ActionRead}: true,

		{ResourceMedicationLog, ActionRead}:   true,
		{ResourceMedicationLog, ActionCreate}: true,
		{ResourceMedicationLog, ActionUpdate}: true,

		{ResourceDocument, ActionRead}: true,

		{ResourceMessage, ActionRead}:   true,
		{ResourceMessage, ActionCreate}: true,

		{ResourceTimeEntry, ActionRead}:   true,
		{ResourceTimeEntry, ActionCreate}: true,
		{ResourceTimeEntry, ActionUpdate}: true,

		{ResourcePayRate, ActionRead}: true,
	},
}

// Decide is the total capability function: unknown roles, resources, and
// actions all deny.
func Decide(role string, resource Resource, action Action) bool {
	return capabilities[role][capability{resource, action}]
}

// CanInvite reports whether a role may issue or forward invite codes. This
// is the one carve-out from manage_members: members may bring people in but
// may not remove them or change roles.
func CanInvite(role string) bool {
	return role == "owner" || role == "member"
}
