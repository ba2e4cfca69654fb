// Package notify delivers email notices for document control events.
package notify

import (
	"context"
	"strings"

	"github.com/sigqms/doccontrol/models"
)

// NotificationSink receives document control events for delivery
type NotificationSink interface {
	/*
		DocumentPublished a new controlled document entered the system

			@param ctx context.Context - execution context
			@param document models.DocumentRecord - the new document
	*/
	DocumentPublished(ctx context.Context, document models.DocumentRecord) error

	/*
		ProposalSubmitted a change proposal awaits review

			@param ctx context.Context - execution context
			@param document models.DocumentRecord - the target document
			@param proposal models.Proposal - the submitted proposal
	*/
	ProposalSubmitted(
		ctx context.Context, document models.DocumentRecord, proposal models.Proposal,
	) error

	/*
		ProposalReviewed a change proposal reached a terminal status

			@param ctx context.Context - execution context
			@param document models.DocumentRecord - the target document
			@param proposal models.Proposal - the reviewed proposal
	*/
	ProposalReviewed(
		ctx context.Context, document models.DocumentRecord, proposal models.Proposal,
	) error

	/*
		EntryApprovalRequested a master list entry awaits approval

			@param ctx context.Context - execution context
			@param entry models.RegistryEntry - the entry pending approval
	*/
	EntryApprovalRequested(ctx context.Context, entry models.RegistryEntry) error

	/*
		EntryStatusChanged a master list entry was approved or rejected

			@param ctx context.Context - execution context
			@param entry models.RegistryEntry - the entry after the change
	*/
	EntryStatusChanged(ctx context.Context, entry models.RegistryEntry) error

	/*
		ActionAssigned an improvement action was assigned to a responsible party

			@param ctx context.Context - execution context
			@param action models.ImprovementAction - the new action
	*/
	ActionAssigned(ctx context.Context, action models.ImprovementAction) error
}

// Directory maps the names of known parties to their email addresses.
// Lookups are case and whitespace insensitive.
type Directory struct {
	addresses map[string]string
}

/*
NewDirectory define a recipient directory

	@param entries map[string]string - party name to email address
	@returns the directory
*/
func NewDirectory(entries map[string]string) *Directory {
	addresses := map[string]string{}
	for name, address := range entries {
		addresses[normalizeName(name)] = address
	}
	return &Directory{addresses: addresses}
}

/*
LookupByName find the email address of a named party

	@param name string - the party name
	@returns the address, and whether the party is known
*/
func (d *Directory) LookupByName(name string) (string, bool) {
	address, ok := d.addresses[normalizeName(name)]
	return address, ok
}

func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
