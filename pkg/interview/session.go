package interview

import (
	"sync"
	"time"
)

// Status is the lifecycle state of a call session. Transitions are strictly
// forward; Completed and Failed are absorbing.
type Status string

const (
	StatusDialing            Status = "dialing"
	StatusInProgress         Status = "in_progress"
	StatusWaitingForAnswer   Status = "waiting_for_answer"
	StatusWaitingForOperator Status = "waiting_for_operator"
	StatusCompleted          Status = "completed"
	StatusFailed             Status = "failed"
)

// Terminal reports whether the status is absorbing.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// transitions is the forward state machine. Failed is reachable from any
// non-terminal state and handled separately in canTransition.
var transitions = map[Status][]Status{
	StatusDialing:            {StatusInProgress},
	StatusInProgress:         {StatusWaitingForAnswer, StatusWaitingForOperator, StatusCompleted},
	StatusWaitingForAnswer:   {StatusInProgress, StatusCompleted},
	StatusWaitingForOperator: {StatusInProgress},
}

func (s Status) canTransition(to Status) bool {
	if s.Terminal() {
		return false
	}
	if to == StatusFailed {
		return true
	}
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Role tags a conversation log entry with its author.
type Role string

const (
	RoleCandidate Role = "candidate"
	RoleAgent     Role = "agent"
	RoleOperator  Role = "operator"
	RoleSystem    Role = "system"
)

// Entry is one line of the append-only conversation log.
type Entry struct {
	Role      Role      `json:"role"`
	Text      string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// session is the mutable per-call state. All field access happens under mu,
// via Registry.update; turnMu additionally serializes answer grading so no two
// answers for the same session are ever scored concurrently.
type session struct {
	mu     sync.Mutex
	turnMu sync.Mutex

	callSID        string
	phoneNumber    string
	status         Status
	queue          []string
	currentIndex   int
	scores         []int
	log            []Entry
	passPercentage int

	operatorControl bool
	pendingPrompt   string
	failReason      string

	createdAt time.Time
	updatedAt time.Time
	expiresAt time.Time
}

func (s *session) appendEntry(role Role, text string, now time.Time) {
	s.log = append(s.log, Entry{Role: role, Text: text, Timestamp: now})
}

// currentQuestion returns the question at currentIndex, or "" when exhausted.
func (s *session) currentQuestion() string {
	if s.currentIndex >= len(s.queue) {
		return ""
	}
	return s.queue[s.currentIndex]
}

// snapshot deep-copies the visible fields. Caller must hold mu.
func (s *session) snapshot() Snapshot {
	scores := make([]int, len(s.scores))
	copy(scores, s.scores)
	log := make([]Entry, len(s.log))
	copy(log, s.log)
	return Snapshot{
		CallSID:               s.callSID,
		PhoneNumber:           s.phoneNumber,
		Status:                s.status,
		QuestionsTotal:        len(s.queue),
		CurrentIndex:          s.currentIndex,
		CurrentQuestion:       s.currentQuestion(),
		Scores:                scores,
		Log:                   log,
		PassPercentage:        s.passPercentage,
		OperatorControl:       s.operatorControl,
		PendingOperatorPrompt: s.pendingPrompt,
		FailReason:            s.failReason,
		CreatedAt:             s.createdAt,
		UpdatedAt:             s.updatedAt,
		ExpiresAt:             s.expiresAt,
	}
}

// summary is the lightweight projection served to the active-calls poller.
// Caller must hold mu.
func (s *session) summary() Summary {
	last := ""
	for i := len(s.log) - 1; i >= 0; i-- {
		if s.log[i].Role == RoleCandidate {
			last = s.log[i].Text
			break
		}
	}
	return Summary{
		CallSID:            s.callSID,
		PhoneNumber:        s.phoneNumber,
		Status:             s.status,
		QuestionsAsked:     s.currentIndex,
		WaitingForResponse: s.status == StatusWaitingForOperator,
		LastUserMessage:    last,
		OperatorControl:    s.operatorControl,
		UpdatedAt:          s.updatedAt,
	}
}

// Snapshot is a read-only, internally consistent copy of one session.
type Snapshot struct {
	CallSID               string
	PhoneNumber           string
	Status                Status
	QuestionsTotal        int
	CurrentIndex          int
	CurrentQuestion       string
	Scores                []int
	Log                   []Entry
	PassPercentage        int
	OperatorControl       bool
	PendingOperatorPrompt string
	FailReason            string
	CreatedAt             time.Time
	UpdatedAt             time.Time
	ExpiresAt             time.Time
}

// Scorecard projects the snapshot's scores for aggregation.
func (s Snapshot) Scorecard() Scorecard {
	return Scorecard{Scores: s.Scores, PassPercentage: s.PassPercentage}
}

// Summary is the lightweight listing entry for dashboard polling.
type Summary struct {
	CallSID            string
	PhoneNumber        string
	Status             Status
	QuestionsAsked     int
	WaitingForResponse bool
	LastUserMessage    string
	OperatorControl    bool
	UpdatedAt          time.Time
}
