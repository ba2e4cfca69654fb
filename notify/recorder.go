package notify

import (
	"context"
	"sync"

	"github.com/sigqms/doccontrol/models"
)

// RecordedNotice one notice captured by the recording sink
type RecordedNotice struct {
	// Event the event kind, e.g. "document-published"
	Event string
	// Document the document involved, if any
	Document models.DocumentRecord
	// Proposal the proposal involved, if any
	Proposal models.Proposal
	// Entry the master list entry involved, if any
	Entry models.RegistryEntry
	// Action the improvement action involved, if any
	Action models.ImprovementAction
}

// RecordingSink a NotificationSink capturing every event in memory. Meant for
// unit-testing.
type RecordingSink struct {
	mu      sync.Mutex
	notices []RecordedNotice
}

// NewRecordingSink define a recording notification sink
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

// Notices the captured notices so far
func (s *RecordingSink) Notices() []RecordedNotice {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]RecordedNotice, len(s.notices))
	copy(copied, s.notices)
	return copied
}

func (s *RecordingSink) record(notice RecordedNotice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, notice)
}

// DocumentPublished capture a document event
func (s *RecordingSink) DocumentPublished(
	_ context.Context, document models.DocumentRecord,
) error {
	s.record(RecordedNotice{Event: "document-published", Document: document})
	return nil
}

// ProposalSubmitted capture a proposal submission event
func (s *RecordingSink) ProposalSubmitted(
	_ context.Context, document models.DocumentRecord, proposal models.Proposal,
) error {
	s.record(RecordedNotice{Event: "proposal-submitted", Document: document, Proposal: proposal})
	return nil
}

// ProposalReviewed capture a proposal review event
func (s *RecordingSink) ProposalReviewed(
	_ context.Context, document models.DocumentRecord, proposal models.Proposal,
) error {
	s.record(RecordedNotice{Event: "proposal-reviewed", Document: document, Proposal: proposal})
	return nil
}

// EntryApprovalRequested capture an entry approval request event
func (s *RecordingSink) EntryApprovalRequested(
	_ context.Context, entry models.RegistryEntry,
) error {
	s.record(RecordedNotice{Event: "entry-approval-requested", Entry: entry})
	return nil
}

// EntryStatusChanged capture an entry status change event
func (s *RecordingSink) EntryStatusChanged(
	_ context.Context, entry models.RegistryEntry,
) error {
	s.record(RecordedNotice{Event: "entry-status-changed", Entry: entry})
	return nil
}

// ActionAssigned capture an action assignment event
func (s *RecordingSink) ActionAssigned(
	_ context.Context, action models.ImprovementAction,
) error {
	s.record(RecordedNotice{Event: "action-assigned", Action: action})
	return nil
}

// nopSinkImpl a NotificationSink dropping every event
type nopSinkImpl struct{}

// NewNopSink define a notification sink that drops every event
func NewNopSink() NotificationSink {
	return nopSinkImpl{}
}

func (nopSinkImpl) DocumentPublished(context.Context, models.DocumentRecord) error { return nil }
func (nopSinkImpl) ProposalSubmitted(
	context.Context, models.DocumentRecord, models.Proposal,
) error {
	return nil
}
func (nopSinkImpl) ProposalReviewed(
	context.Context, models.DocumentRecord, models.Proposal,
) error {
	return nil
}
func (nopSinkImpl) EntryApprovalRequested(context.Context, models.RegistryEntry) error {
	return nil
}
func (nopSinkImpl) EntryStatusChanged(context.Context, models.RegistryEntry) error { return nil }
func (nopSinkImpl) ActionAssigned(context.Context, models.ImprovementAction) error { return nil }
