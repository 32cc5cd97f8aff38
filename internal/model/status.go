package model

// ── 需求状态机 ──
//
//	draft → pending → matched → in_progress → completed
//	           ↘         ↘
//	          cancelled  cancelled

// RequestStatus 翻译需求状态
type RequestStatus string

const (
	RequestStatusDraft      RequestStatus = "draft"
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusMatched    RequestStatus = "matched"
	RequestStatusInProgress RequestStatus = "in_progress"
	RequestStatusCompleted  RequestStatus = "completed"
	RequestStatusCancelled  RequestStatus = "cancelled"
)

var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusDraft:      {RequestStatusPending},
	RequestStatusPending:    {RequestStatusMatched, RequestStatusCancelled},
	RequestStatusMatched:    {RequestStatusInProgress, RequestStatusCancelled},
	RequestStatusInProgress: {RequestStatusCompleted},
}

// Valid 是否为已知状态
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusDraft, RequestStatusPending, RequestStatusMatched,
		RequestStatusInProgress, RequestStatusCompleted, RequestStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo 状态转移表校验
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, allowed := range requestTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Assigned 需求是否已有被接受的申请
func (s RequestStatus) Assigned() bool {
	return s == RequestStatusMatched || s == RequestStatusInProgress || s == RequestStatusCompleted
}

// ── 申请（指派）状态机 ──
//
//	pending → accepted → completed
//	   ├→ rejected   ↘
//	   └→ cancelled   cancelled

// AssignmentStatus 指派状态
type AssignmentStatus string

const (
	AssignmentStatusPending   AssignmentStatus = "pending"
	AssignmentStatusAccepted  AssignmentStatus = "accepted"
	AssignmentStatusRejected  AssignmentStatus = "rejected"
	AssignmentStatusCompleted AssignmentStatus = "completed"
	AssignmentStatusCancelled AssignmentStatus = "cancelled"
)

var assignmentTransitions = map[AssignmentStatus][]AssignmentStatus{
	AssignmentStatusPending:  {AssignmentStatusAccepted, AssignmentStatusRejected, AssignmentStatusCancelled},
	AssignmentStatusAccepted: {AssignmentStatusCompleted, AssignmentStatusCancelled},
}

// Valid 是否为已知状态
func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentStatusPending, AssignmentStatusAccepted, AssignmentStatusRejected,
		AssignmentStatusCompleted, AssignmentStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo 状态转移表校验
func (s AssignmentStatus) CanTransitionTo(next AssignmentStatus) bool {
	for _, allowed := range assignmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal 是否为终态
func (s AssignmentStatus) Terminal() bool {
	return len(assignmentTransitions[s]) == 0
}

// BlocksReapply 该状态的申请是否阻止同一译员再次申请（仅 rejected 不阻止）
func (s AssignmentStatus) BlocksReapply() bool {
	return s != AssignmentStatusRejected
}

var allAssignmentStatuses = []AssignmentStatus{
	AssignmentStatusPending, AssignmentStatusAccepted, AssignmentStatusRejected,
	AssignmentStatusCompleted, AssignmentStatusCancelled,
}

// ReapplyBlockingStatuses 阻止再次申请的全部状态，供查询条件使用
func ReapplyBlockingStatuses() []AssignmentStatus {
	out := make([]AssignmentStatus, 0, len(allAssignmentStatuses))
	for _, s := range allAssignmentStatuses {
		if s.BlocksReapply() {
			out = append(out, s)
		}
	}
	return out
}
