package codegen

import (
	"context"
	"fmt"
	"time"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/sigqms/doccontrol/db"
	"github.com/sigqms/doccontrol/models"
)

// MaxCodesPerReservation upper bound on the number of codes reserved in one call
const MaxCodesPerReservation = 50

// DefaultReservationTTL how long a code reservation placeholder is held before
// cleanup may reclaim it
const DefaultReservationTTL = time.Hour

// CodeUsage code occupancy under one prefix
type CodeUsage struct {
	// Prefix the code prefix, e.g. "RE-GS-"
	Prefix string `json:"prefix"`
	// Used the occupied codes under the prefix
	Used []string `json:"used"`
	// Next the next code a generation call would hand out
	Next string `json:"next"`
}

// Generator hands out document codes against the master list
type Generator interface {
	/*
		NextCode compute the next available code for one document type under one process

		The lowest free sequence number is used, so gaps left by retired documents
		are refilled first.

			@param ctx context.Context - execution context
			@param process models.ProcessENUMType - the owning process
			@param docType models.DocumentTypeENUMType - the document type
			@returns the next available code
	*/
	NextCode(
		ctx context.Context,
		process models.ProcessENUMType,
		docType models.DocumentTypeENUMType,
	) (string, error)

	/*
		CodeTaken check whether one document code is occupied

			@param ctx context.Context - execution context
			@param code string - the document code
			@returns whether the code is occupied
	*/
	CodeTaken(ctx context.Context, code string) (bool, error)

	/*
		ReserveCodes reserve a batch of codes for offline numbering

		Each reserved code is held by an inactive placeholder entry in the master
		list until claimed or reclaimed by cleanup.

			@param ctx context.Context - execution context
			@param process models.ProcessENUMType - the owning process
			@param docType models.DocumentTypeENUMType - the document type
			@param count int - number of codes to reserve, at most `MaxCodesPerReservation`
			@returns the reserved codes
	*/
	ReserveCodes(
		ctx context.Context,
		process models.ProcessENUMType,
		docType models.DocumentTypeENUMType,
		count int,
	) ([]string, error)

	/*
		CleanupReservedCodes reclaim reservation placeholders older than the TTL

			@param ctx context.Context - execution context
			@returns number of reservations reclaimed
	*/
	CleanupReservedCodes(ctx context.Context) (int64, error)

	/*
		CodeStats report code occupancy for one document type under one process

			@param ctx context.Context - execution context
			@param process models.ProcessENUMType - the owning process
			@param docType models.DocumentTypeENUMType - the document type
			@returns the occupancy report
	*/
	CodeStats(
		ctx context.Context,
		process models.ProcessENUMType,
		docType models.DocumentTypeENUMType,
	) (CodeUsage, error)
}

// generatorImpl implements Generator
type generatorImpl struct {
	goutils.Component
	persistence    db.Client
	reservationTTL time.Duration
}

/*
NewGenerator define a new document code generator

	@param persistence db.Client - persistence client
	@param reservationTTL time.Duration - reservation placeholder lifetime. Zero
	    selects `DefaultReservationTTL`.
	@returns new generator
*/
func NewGenerator(persistence db.Client, reservationTTL time.Duration) (Generator, error) {
	logTags := log.Fields{"package": "doccontrol", "module": "codegen", "component": "generator"}

	if reservationTTL == 0 {
		reservationTTL = DefaultReservationTTL
	}

	return &generatorImpl{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		persistence:    persistence,
		reservationTTL: reservationTTL,
	}, nil
}

/*
NextCode compute the next available code for one document type under one process

	@param ctx context.Context - execution context
	@param process models.ProcessENUMType - the owning process
	@param docType models.DocumentTypeENUMType - the document type
	@returns the next available code
*/
func (g *generatorImpl) NextCode(
	ctx context.Context,
	process models.ProcessENUMType,
	docType models.DocumentTypeENUMType,
) (string, error) {
	prefix, err := BuildPrefix(docType, process)
	if err != nil {
		return "", err
	}

	var nextCode string
	err = g.persistence.UseDatabase(ctx, func(ctx context.Context, dbClient db.Database) error {
		taken, err := dbClient.ListTakenCodesWithPrefix(ctx, prefix)
		if err != nil {
			return err
		}
		nextCode = FormatCode(prefix, firstFreeSequence(taken))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to compute next code under '%s' [%w]", prefix, err)
	}

	return nextCode, nil
}

/*
CodeTaken check whether one document code is occupied

	@param ctx context.Context - execution context
	@param code string - the document code
	@returns whether the code is occupied
*/
func (g *generatorImpl) CodeTaken(ctx context.Context, code string) (bool, error) {
	if err := ValidateCodeFormat(code); err != nil {
		return false, err
	}

	var taken bool
	err := g.persistence.UseDatabase(ctx, func(ctx context.Context, dbClient db.Database) error {
		t, err := dbClient.CodeTaken(ctx, code)
		if err != nil {
			return err
		}
		taken = t
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to check code '%s' [%w]", code, err)
	}

	return taken, nil
}

/*
ReserveCodes reserve a batch of codes for offline numbering

	@param ctx context.Context - execution context
	@param process models.ProcessENUMType - the owning process
	@param docType models.DocumentTypeENUMType - the document type
	@param count int - number of codes to reserve, at most `MaxCodesPerReservation`
	@returns the reserved codes
*/
func (g *generatorImpl) ReserveCodes(
	ctx context.Context,
	process models.ProcessENUMType,
	docType models.DocumentTypeENUMType,
	count int,
) ([]string, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: requested reservation of %d codes", ErrInvalidArgument, count)
	}
	if count > MaxCodesPerReservation {
		return nil, fmt.Errorf(
			"%w: requested reservation of %d codes exceeds the cap of %d",
			ErrInvalidArgument,
			count,
			MaxCodesPerReservation,
		)
	}

	prefix, err := BuildPrefix(docType, process)
	if err != nil {
		return nil, err
	}

	var reserved []string
	err = g.persistence.UseDatabaseInTransaction(
		ctx, func(ctx context.Context, dbClient db.Database) error {
			taken, err := dbClient.ListTakenCodesWithPrefix(ctx, prefix)
			if err != nil {
				return err
			}

			occupied := map[int]bool{}
			for _, code := range taken {
				parsed, err := ParseCode(code)
				if err != nil {
					continue
				}
				occupied[parsed.Sequence] = true
			}

			sequence := 1
			for len(reserved) < count {
				for occupied[sequence] {
					sequence++
				}
				code := FormatCode(prefix, sequence)
				if _, err := dbClient.CreateRegistryEntry(ctx, models.RegistryEntry{
					Code:        code,
					Name:        db.ReservedNamePrefix + code,
					Process:     process,
					DocType:     docType,
					Version:     "0",
					Responsible: "sistema",
					Status:      models.DocumentStatusDraft,
					Active:      false,
				}); err != nil {
					return err
				}
				reserved = append(reserved, code)
				occupied[sequence] = true
			}
			return nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve %d codes under '%s' [%w]", count, prefix, err)
	}

	log.WithFields(g.LogTags).
		WithField("prefix", prefix).
		WithField("count", len(reserved)).
		Info("Reserved document codes")

	return reserved, nil
}

/*
CleanupReservedCodes reclaim reservation placeholders older than the TTL

	@param ctx context.Context - execution context
	@returns number of reservations reclaimed
*/
func (g *generatorImpl) CleanupReservedCodes(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-g.reservationTTL)

	var reclaimed int64
	err := g.persistence.UseDatabaseInTransaction(
		ctx, func(ctx context.Context, dbClient db.Database) error {
			removed, err := dbClient.DeleteReservedRegistryEntries(ctx, cutoff)
			if err != nil {
				return err
			}
			reclaimed = removed
			return nil
		},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up code reservations [%w]", err)
	}

	if reclaimed > 0 {
		log.WithFields(g.LogTags).WithField("count", reclaimed).Info("Reclaimed code reservations")
	}

	return reclaimed, nil
}

/*
CodeStats report code occupancy for one document type under one process

	@param ctx context.Context - execution context
	@param process models.ProcessENUMType - the owning process
	@param docType models.DocumentTypeENUMType - the document type
	@returns the occupancy report
*/
func (g *generatorImpl) CodeStats(
	ctx context.Context,
	process models.ProcessENUMType,
	docType models.DocumentTypeENUMType,
) (CodeUsage, error) {
	prefix, err := BuildPrefix(docType, process)
	if err != nil {
		return CodeUsage{}, err
	}

	var usage CodeUsage
	err = g.persistence.UseDatabase(ctx, func(ctx context.Context, dbClient db.Database) error {
		taken, err := dbClient.ListTakenCodesWithPrefix(ctx, prefix)
		if err != nil {
			return err
		}
		usage = CodeUsage{
			Prefix: prefix,
			Used:   taken,
			Next:   FormatCode(prefix, firstFreeSequence(taken)),
		}
		return nil
	})
	if err != nil {
		return CodeUsage{}, fmt.Errorf("failed to report code usage under '%s' [%w]", prefix, err)
	}

	return usage, nil
}
