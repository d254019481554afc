package workflow

import "sort"

// Privilege is a permission code held by a role, e.g. "payment_request.update".
type Privilege string

const (
	PrivPaymentRequestRead   Privilege = "payment_request.read"
	PrivPaymentRequestCreate Privilege = "payment_request.create"
	PrivPaymentRequestUpdate Privilege = "payment_request.update"
	PrivPaymentDetailsCreate Privilege = "payment_details.create"

	PrivDocumentRead   Privilege = "document.read"
	PrivDocumentUpdate Privilege = "document.update"
	PrivDocumentDelete Privilege = "document.delete"

	PrivReportRead   Privilege = "report.read"
	PrivReportExport Privilege = "report.export"

	PrivProjectRead   Privilege = "project.read"
	PrivProjectUpdate Privilege = "project.update"

	PrivKdspRead            Privilege = "kdsp.read"
	PrivKdspUpdate          Privilege = "kdsp.update"
	PrivStrategicPlanRead   Privilege = "strategic_plan.read"
	PrivStrategicPlanUpdate Privilege = "strategic_plan.update"

	PrivUserRead            Privilege = "user.read"
	PrivUserManage          Privilege = "user.manage"
	PrivRoleManage          Privilege = "role.manage"
	PrivAuditRead           Privilege = "audit.read"
	PrivApprovalLevelManage Privilege = "approval_level.manage"
)

var allPrivileges = []Privilege{
	PrivPaymentRequestRead, PrivPaymentRequestCreate, PrivPaymentRequestUpdate, PrivPaymentDetailsCreate,
	PrivDocumentRead, PrivDocumentUpdate, PrivDocumentDelete,
	PrivReportRead, PrivReportExport,
	PrivProjectRead, PrivProjectUpdate,
	PrivKdspRead, PrivKdspUpdate, PrivStrategicPlanRead, PrivStrategicPlanUpdate,
	PrivUserRead, PrivUserManage, PrivRoleManage, PrivAuditRead, PrivApprovalLevelManage,
}

// AllPrivileges lists every privilege the system checks.
func AllPrivileges() []Privilege {
	out := make([]Privilege, len(allPrivileges))
	copy(out, allPrivileges)
	return out
}

// ParsePrivilege reports whether code names a known privilege.
func ParsePrivilege(code string) (Privilege, bool) {
	for _, p := range allPrivileges {
		if string(p) == code {
			return p, true
		}
	}
	return "", false
}

// Capabilities answers privilege questions about the current user.
type Capabilities interface {
	Can(p Privilege) bool
}

// PrivilegeSet is a flat, additive set of privileges.
type PrivilegeSet map[Privilege]struct{}

// NewPrivilegeSet builds a set from stored codes; unknown codes are dropped.
func NewPrivilegeSet(codes ...string) PrivilegeSet {
	set := make(PrivilegeSet, len(codes))
	for _, c := range codes {
		if p, ok := ParsePrivilege(c); ok {
			set[p] = struct{}{}
		}
	}
	return set
}

func (s PrivilegeSet) Can(p Privilege) bool {
	_, ok := s[p]
	return ok
}

// Codes returns the set as sorted strings.
func (s PrivilegeSet) Codes() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, string(p))
	}
	sort.Strings(out)
	return out
}
