package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/imovelhub/backoffice/internal/core/domain"
	portsrepo "github.com/imovelhub/backoffice/internal/core/ports/repositories"
	"github.com/imovelhub/backoffice/internal/middleware"
)

// parcelLabelPattern matches a parcel label line ("Parcela 2/12") so prior
// labels can be stripped before a fresh one is appended.
var parcelLabelPattern = regexp.MustCompile(`^Parcela \d+/\d+$`)

// CloneSynchronizer maintains one independent child entry per installment of
// a plan parent, so every installment behaves like its own
// payable/receivable. Clones are the only entries that move money for a
// plan; the parent never does.
type CloneSynchronizer struct {
	entryRepo portsrepo.EntryRepositoryFacade
	engine    *StateEngine
	now       func() time.Time
}

// NewCloneSynchronizer creates a CloneSynchronizer.
func NewCloneSynchronizer(entryRepo portsrepo.EntryRepositoryFacade, engine *StateEngine) *CloneSynchronizer {
	return &CloneSynchronizer{
		entryRepo: entryRepo,
		engine:    engine,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// stripParcelLabel removes any parcel label lines from the notes.
func stripParcelLabel(notes string) string {
	if notes == "" {
		return ""
	}
	lines := strings.Split(notes, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if parcelLabelPattern.MatchString(strings.TrimSpace(line)) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimRight(strings.Join(kept, "\n"), "\n")
}

// parcelNotes appends the parcel label to the cleaned parent notes.
func parcelNotes(cleanNotes, label string) string {
	if cleanNotes == "" {
		return label
	}
	return cleanNotes + "\n" + label
}

// Sync runs the installment/clone linkage protocol on the just-written
// entry, inside the enclosing transaction. It returns the parent with its
// derived state refreshed.
func (s *CloneSynchronizer) Sync(ctx context.Context, tx pgx.Tx, parentID string, userID string) (*domain.Entry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	parent, err := s.entryRepo.FindEntryByIDTx(ctx, tx, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entry %s for clone sync: %w", parentID, err)
	}

	// Clones themselves are never plan parents; nothing to synchronize.
	if parent.CloneOf != nil {
		return parent, nil
	}

	clones, err := s.entryRepo.FindClonesByParentID(ctx, tx, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load clones of entry %s: %w", parentID, err)
	}

	// Only entries generated from this parent's installments take part in
	// the protocol; manual clones of the same source are left alone.
	planClones := make(map[string]*domain.Entry, len(clones))
	for i := range clones {
		c := &clones[i]
		if len(c.Installments) == 1 && c.Installments[0].SourceEntryID != nil && *c.Installments[0].SourceEntryID == parentID {
			planClones[c.EntryID] = c
		}
	}

	if len(parent.Installments) <= 1 {
		return s.collapse(ctx, tx, parent, planClones, userID)
	}

	if parent.Origin != domain.OriginInstallmentPlan {
		parent.Origin = domain.OriginInstallmentPlan
		if err := s.entryRepo.UpdateEntry(ctx, tx, *parent); err != nil {
			return nil, fmt.Errorf("failed to mark entry %s as installment plan: %w", parentID, err)
		}
	}

	cleanNotes := stripParcelLabel(parent.Notes)
	installments := make([]domain.Installment, len(parent.Installments))
	copy(installments, parent.Installments)
	sort.Slice(installments, func(i, j int) bool {
		return installments[i].Sequence < installments[j].Sequence
	})

	total := len(installments)
	active := make(map[string]bool, total)
	now := s.now()

	for i := range installments {
		inst := &installments[i]
		label := fmt.Sprintf("Parcela %d/%d", i+1, total)
		notes := parcelNotes(cleanNotes, label)

		var existing *domain.Entry
		if inst.LinkedEntryID != nil {
			// A missing linked clone is self-healing: fall through to create.
			existing = planClones[*inst.LinkedEntryID]
		}

		var cloneID string
		if existing != nil {
			cloneID = existing.EntryID
			prev := PreviousState{Status: existing.Status, Amount: existing.Amount}
			s.applyInstallmentToClone(parent, inst, existing, notes, i+1, total, userID, now)
			if err := persistEntryGraph(ctx, tx, s.entryRepo, existing, false); err != nil {
				return nil, err
			}
			if _, err := s.engine.SyncEntryState(ctx, tx, cloneID, prev, userID); err != nil {
				return nil, err
			}
		} else {
			clone := s.buildClone(parent, inst, notes, i+1, total, userID, now)
			cloneID = clone.EntryID
			if err := persistEntryGraph(ctx, tx, s.entryRepo, clone, true); err != nil {
				return nil, err
			}
			if _, err := s.engine.SyncEntryState(ctx, tx, cloneID, PreviousState{Status: domain.StatusPlanned, Amount: decimal.Zero}, userID); err != nil {
				return nil, err
			}
			logger.Debug("Installment clone created",
				slog.String("parent_id", parentID),
				slog.String("clone_id", cloneID),
				slog.Int("sequence", inst.Sequence),
			)
		}

		if err := s.entryRepo.UpdateInstallmentLink(ctx, tx, inst.InstallmentID, &cloneID, label, i+1, total, userID, now); err != nil {
			return nil, fmt.Errorf("failed to link installment %s to clone %s: %w", inst.InstallmentID, cloneID, err)
		}
		active[cloneID] = true
	}

	// Installments removed from the plan leave their clones behind; drop
	// every clone no longer referenced.
	var stale []string
	for id := range planClones {
		if !active[id] {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		// A settled clone's applied amount must come back out of the
		// account before the row disappears.
		for _, id := range stale {
			if err := s.engine.ReverseSettlement(ctx, tx, planClones[id], userID); err != nil {
				return nil, fmt.Errorf("failed to reverse settled clone %s: %w", id, err)
			}
		}
		if err := s.entryRepo.HardDeleteEntries(ctx, tx, stale); err != nil {
			return nil, fmt.Errorf("failed to delete stale clones of entry %s: %w", parentID, err)
		}
		logger.Info("Stale installment clones removed", slog.String("parent_id", parentID), slog.Int("count", len(stale)))
	}

	return s.engine.SyncEntryState(ctx, tx, parentID, PreviousState{Status: parent.Status, Amount: parent.Amount}, userID)
}

// collapse handles the "plan was reduced to a single payment" path: orphaned
// clones are removed, linkage metadata stripped, and the entry reverts to a
// manual origin.
func (s *CloneSynchronizer) collapse(ctx context.Context, tx pgx.Tx, parent *domain.Entry, planClones map[string]*domain.Entry, userID string) (*domain.Entry, error) {
	now := s.now()

	if len(planClones) > 0 {
		ids := make([]string, 0, len(planClones))
		for id := range planClones {
			ids = append(ids, id)
		}
		// Settled clones reverse first; the parent's own engine pass then
		// settles the collapsed single payment exactly once.
		for _, id := range ids {
			if err := s.engine.ReverseSettlement(ctx, tx, planClones[id], userID); err != nil {
				return nil, fmt.Errorf("failed to reverse settled clone %s: %w", id, err)
			}
		}
		if err := s.entryRepo.HardDeleteEntries(ctx, tx, ids); err != nil {
			return nil, fmt.Errorf("failed to delete orphaned clones of entry %s: %w", parent.EntryID, err)
		}
	}

	if err := s.entryRepo.ClearInstallmentLinks(ctx, tx, parent.EntryID, userID, now); err != nil {
		return nil, fmt.Errorf("failed to clear installment links for entry %s: %w", parent.EntryID, err)
	}

	if parent.Origin == domain.OriginInstallmentPlan {
		parent.Origin = domain.OriginManual
		if err := s.entryRepo.UpdateEntry(ctx, tx, *parent); err != nil {
			return nil, fmt.Errorf("failed to revert entry %s to manual origin: %w", parent.EntryID, err)
		}
	}

	return s.engine.SyncEntryState(ctx, tx, parent.EntryID, PreviousState{Status: parent.Status, Amount: parent.Amount}, userID)
}

// applyInstallmentToClone rewrites an existing clone in place with the
// installment's own dates, amount, and status.
func (s *CloneSynchronizer) applyInstallmentToClone(parent *domain.Entry, inst *domain.Installment, clone *domain.Entry, notes string, number, total int, userID string, now time.Time) {
	clone.Type = parent.Type
	clone.AccountID = parent.AccountID
	clone.CounterAccountID = parent.CounterAccountID
	clone.CostCenterID = parent.CostCenterID
	clone.PropertyID = parent.PropertyID
	clone.PersonID = parent.PersonID
	clone.Description = parent.Description
	clone.Notes = notes
	clone.ReferenceCode = parent.ReferenceCode
	clone.CurrencyCode = parent.CurrencyCode
	clone.MovementDate = inst.MovementDate
	clone.DueDate = inst.DueDate
	clone.PaymentDate = inst.PaymentDate
	clone.Amount = inst.TotalAmount
	clone.InstallmentsCount = 1
	clone.LastUpdatedAt = now
	clone.LastUpdatedBy = userID
	clone.Installments = []domain.Installment{
		s.buildCloneInstallment(clone.EntryID, parent.EntryID, inst, number, total, userID, now),
	}
}

// buildClone assembles a brand new clone entry for one installment.
func (s *CloneSynchronizer) buildClone(parent *domain.Entry, inst *domain.Installment, notes string, number, total int, userID string, now time.Time) *domain.Entry {
	cloneID := uuid.NewString()
	parentID := parent.EntryID

	clone := &domain.Entry{
		EntryID:           cloneID,
		Type:              parent.Type,
		AccountID:         parent.AccountID,
		CounterAccountID:  parent.CounterAccountID,
		CostCenterID:      parent.CostCenterID,
		PropertyID:        parent.PropertyID,
		PersonID:          parent.PersonID,
		Description:       parent.Description,
		Notes:             notes,
		ReferenceCode:     parent.ReferenceCode,
		Origin:            domain.OriginClone,
		CloneOf:           &parentID,
		MovementDate:      inst.MovementDate,
		DueDate:           inst.DueDate,
		PaymentDate:       inst.PaymentDate,
		Amount:            inst.TotalAmount,
		CurrencyCode:      parent.CurrencyCode,
		Status:            domain.StatusPlanned,
		InstallmentsCount: 1,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	clone.Installments = []domain.Installment{
		s.buildCloneInstallment(cloneID, parentID, inst, number, total, userID, now),
	}
	for _, alloc := range parent.Allocations {
		clone.Allocations = append(clone.Allocations, domain.Allocation{
			AllocationID: uuid.NewString(),
			EntryID:      cloneID,
			CostCenterID: alloc.CostCenterID,
			PropertyID:   alloc.PropertyID,
			Percent:      alloc.Percent,
			Amount:       alloc.Amount,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		})
	}
	return clone
}

// buildCloneInstallment builds the clone's single installment, carrying the
// back-pointers to the originating plan installment.
func (s *CloneSynchronizer) buildCloneInstallment(cloneID, parentID string, inst *domain.Installment, number, total int, userID string, now time.Time) domain.Installment {
	sourceInstallmentID := inst.InstallmentID
	sourceEntryID := parentID
	return domain.Installment{
		InstallmentID:       uuid.NewString(),
		EntryID:             cloneID,
		Sequence:            1,
		MovementDate:        inst.MovementDate,
		DueDate:             inst.DueDate,
		PaymentDate:         inst.PaymentDate,
		PrincipalAmount:     inst.PrincipalAmount,
		InterestAmount:      inst.InterestAmount,
		PenaltyAmount:       inst.PenaltyAmount,
		DiscountAmount:      inst.DiscountAmount,
		TotalAmount:         inst.TotalAmount,
		Status:              inst.Status,
		ParcelLabel:         fmt.Sprintf("Parcela %d/%d", number, total),
		ParcelNumber:        number,
		ParcelTotal:         total,
		SourceEntryID:       &sourceEntryID,
		SourceInstallmentID: &sourceInstallmentID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
}
