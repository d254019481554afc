package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChain() Chain {
	return NewChain([]Level{
		{ID: 7, Name: "Chief Officer", RoleID: 30, Sequence: 2},
		{ID: 3, Name: "Project Manager", RoleID: 10, Sequence: 1},
	})
}

func levelPtr(l Level) *Level { return &l }

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw   string
		want  Status
		known bool
	}{
		{"Pending Review", StatusPendingReview, true},
		{"pending_review", StatusPendingReview, true},
		{"  PENDING   review ", StatusPendingReview, true},
		{"approved for payment", StatusApprovedForPayment, true},
		{"Approved-For-Payment", StatusApprovedForPayment, true},
		{"paid", StatusPaid, true},
		{"returned for correction", StatusReturned, true},
		{"On Hold", Status("On Hold"), false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseStatus(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.known, ok)
		})
	}
}

func TestAvailableActions_PendingReviewRequiresRoleAndPrivilege(t *testing.T) {
	chain := testChain()
	first, _ := chain.First()
	snap := Snapshot{Status: StatusPendingReview, SubmitterID: 1, CurrentLevel: levelPtr(first)}

	tests := []struct {
		name   string
		viewer Viewer
		want   []Action
	}{
		{
			name:   "matching role with privilege",
			viewer: Viewer{UserID: 2, RoleID: 10, Caps: NewPrivilegeSet("payment_request.update")},
			want:   []Action{ActionApprove, ActionReject, ActionReturn},
		},
		{
			name:   "matching role without privilege",
			viewer: Viewer{UserID: 2, RoleID: 10, Caps: NewPrivilegeSet("payment_request.read")},
			want:   []Action{},
		},
		{
			name:   "privilege but another level's role",
			viewer: Viewer{UserID: 2, RoleID: 30, Caps: NewPrivilegeSet("payment_request.update")},
			want:   []Action{},
		},
		{
			name:   "nil capabilities",
			viewer: Viewer{UserID: 2, RoleID: 10},
			want:   []Action{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AvailableActions(tt.viewer, snap))
		})
	}
}

func TestAvailableActions_OtherStatuses(t *testing.T) {
	payer := Viewer{UserID: 9, RoleID: 50, Caps: NewPrivilegeSet("payment_details.create")}
	submitter := Viewer{UserID: 1, RoleID: 5, Caps: NewPrivilegeSet("payment_request.create")}

	assert.Equal(t, []Action{ActionMarkPaid}, AvailableActions(payer, Snapshot{Status: StatusApprovedForPayment}))
	assert.Empty(t, AvailableActions(submitter, Snapshot{Status: StatusApprovedForPayment}))
	assert.Equal(t, []Action{ActionSubmit}, AvailableActions(submitter, Snapshot{Status: StatusReturned, SubmitterID: 1}))
	assert.Empty(t, AvailableActions(payer, Snapshot{Status: StatusReturned, SubmitterID: 1}))

	for _, s := range []Status{StatusPaid, StatusRejected, StatusApproved, Status("On Hold")} {
		assert.Empty(t, AvailableActions(payer, Snapshot{Status: s}), s)
		assert.True(t, s.ReadOnly(), s)
	}
}

func TestTransition_WalksTheChain(t *testing.T) {
	chain := testChain()
	first, _ := chain.First()

	out, err := Transition(chain, Snapshot{Status: StatusPendingReview, CurrentLevel: levelPtr(first)}, ActionApprove)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingReview, out.Status)
	require.NotNil(t, out.LevelID)
	assert.Equal(t, uint(7), *out.LevelID)

	last, _ := chain.Find(7)
	out, err = Transition(chain, Snapshot{Status: StatusPendingReview, CurrentLevel: levelPtr(last)}, ActionApprove)
	require.NoError(t, err)
	assert.Equal(t, StatusApprovedForPayment, out.Status)
	assert.Nil(t, out.LevelID)

	out, err = Transition(chain, Snapshot{Status: StatusApprovedForPayment}, ActionMarkPaid)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, out.Status)
}

func TestTransition_RejectReturnAndResubmit(t *testing.T) {
	chain := testChain()
	last, _ := chain.Find(7)
	pending := Snapshot{Status: StatusPendingReview, CurrentLevel: levelPtr(last)}

	out, err := Transition(chain, pending, ActionReject)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, out.Status)
	assert.Nil(t, out.LevelID)

	out, err = Transition(chain, pending, ActionReturn)
	require.NoError(t, err)
	assert.Equal(t, StatusReturned, out.Status)

	out, err = Transition(chain, Snapshot{Status: StatusReturned}, ActionSubmit)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingReview, out.Status)
	require.NotNil(t, out.LevelID)
	assert.Equal(t, uint(3), *out.LevelID)
}

func TestTransition_Invalid(t *testing.T) {
	chain := testChain()

	_, err := Transition(chain, Snapshot{Status: StatusPaid}, ActionApprove)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = Transition(chain, Snapshot{Status: StatusPendingReview}, ActionMarkPaid)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = Transition(nil, Snapshot{Status: StatusReturned}, ActionSubmit)
	assert.ErrorIs(t, err, ErrNoApprovalLevels)

	_, err = Transition(chain, Snapshot{Status: StatusPendingReview}, Action("escalate"))
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestResolveNotes(t *testing.T) {
	notes, err := ResolveNotes(ActionApprove, "   ", "Project Manager")
	require.NoError(t, err)
	assert.Equal(t, "Approved by Project Manager", notes)

	notes, err = ResolveNotes(ActionApprove, " looks good ", "Project Manager")
	require.NoError(t, err)
	assert.Equal(t, "looks good", notes)

	for _, a := range []Action{ActionReject, ActionReturn} {
		_, err = ResolveNotes(a, " \t\n", "Project Manager")
		assert.ErrorIs(t, err, ErrNotesRequired, a)
	}

	notes, err = ResolveNotes(ActionReturn, "missing invoice", "Project Manager")
	require.NoError(t, err)
	assert.Equal(t, "missing invoice", notes)
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("Approve")
	require.NoError(t, err)
	assert.Equal(t, ActionApprove, a)

	a, err = ParseAction("mark paid")
	require.NoError(t, err)
	assert.Equal(t, ActionMarkPaid, a)

	_, err = ParseAction("status_update")
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = ParseAction("escalate")
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestPrivilegeSet(t *testing.T) {
	set := NewPrivilegeSet("report.read", "payment_request.update", "not.a.privilege")
	assert.True(t, set.Can(PrivReportRead))
	assert.False(t, set.Can(PrivReportExport))
	assert.Equal(t, []string{"payment_request.update", "report.read"}, set.Codes())
}
