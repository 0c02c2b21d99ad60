package importer

import (
	"context"
	"fmt"

	"github.com/automation-hub/hub/internal/duplicate"
	"github.com/automation-hub/hub/internal/models"
	"golang.org/x/sync/errgroup"
)

// ImportUsers imports users with one bulk duplicate pass followed by sequential creation.
// An error is returned only when the bulk reads fail; per-record problems land in the results.
func (im *Importer) ImportUsers(ctx context.Context, users []UserInput) (BatchResult, error) {
	started := im.now()
	inputs := make([]UserInput, len(users))
	invalid := make(map[int]string)
	candidates := make([]duplicate.UserCandidate, 0, len(users))
	for i, user := range users {
		inputs[i] = user.normalized()
		if msg := inputs[i].validate(); msg != "" {
			invalid[i] = msg
			continue
		}
		candidates = append(candidates, duplicate.UserCandidate{ExternalID: inputs[i].ExternalID, Email: inputs[i].Email})
	}

	duplicates, err := im.detector.DetectDuplicateUsers(ctx, candidates)
	if err != nil {
		return BatchResult{}, fmt.Errorf("importer: detect duplicate users: %w", err)
	}

	out := newBatch(len(inputs))
	for i, in := range inputs {
		switch {
		case invalid[i] != "":
			out.add(rejected(in.ExternalID, ReasonInvalid, invalid[i]))
		case duplicates.Has(in.ExternalID):
			out.add(rejected(in.ExternalID, ReasonDuplicate, userDuplicateMessage(in)))
		default:
			out.add(im.createUser(ctx, in))
		}
	}
	im.recordRun(ctx, models.EntityTypeUser, started, out)
	return out, nil
}

// ImportBanks imports banks. Owner resolution and the bulk bank mapping lookup run in
// parallel; creation stays sequential so results keep input order.
func (im *Importer) ImportBanks(ctx context.Context, banks []BankInput) (BatchResult, error) {
	started := im.now()
	inputs := make([]BankInput, len(banks))
	invalid := make(map[int]string)
	ownerIDs := make([]string, 0, len(banks))
	bankIDs := make([]string, 0, len(banks))
	for i, bank := range banks {
		inputs[i] = bank.normalized()
		if msg := inputs[i].validate(); msg != "" {
			invalid[i] = msg
			continue
		}
		ownerIDs = append(ownerIDs, inputs[i].UserExternalID)
		bankIDs = append(bankIDs, inputs[i].ExternalID)
	}

	var owners map[string]string
	var mapped duplicate.Set
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var errOwners error
		owners, errOwners = im.mappings.GetBatchInternalIDs(gctx, ownerIDs, models.EntityTypeUser, im.Module())
		return errOwners
	})
	g.Go(func() error {
		var errMapped error
		mapped, errMapped = im.detector.MappedExternalIDs(gctx, bankIDs, models.EntityTypeBank)
		return errMapped
	})
	if errWait := g.Wait(); errWait != nil {
		return BatchResult{}, fmt.Errorf("importer: resolve banks: %w", errWait)
	}

	candidates := make([]duplicate.BankCandidate, 0, len(inputs))
	for i, in := range inputs {
		if invalid[i] != "" {
			continue
		}
		candidates = append(candidates, duplicate.BankCandidate{ExternalID: in.ExternalID, UserExternalID: in.UserExternalID, Name: in.Name})
	}
	duplicates, err := im.detector.ClassifyBanks(ctx, candidates, owners, mapped)
	if err != nil {
		return BatchResult{}, fmt.Errorf("importer: detect duplicate banks: %w", err)
	}

	out := newBatch(len(inputs))
	for i, in := range inputs {
		if invalid[i] != "" {
			out.add(rejected(in.ExternalID, ReasonInvalid, invalid[i]))
			continue
		}
		userID, ok := owners[in.UserExternalID]
		switch {
		case !ok:
			out.add(rejected(in.ExternalID, ReasonMissingReference, fmt.Sprintf("User with external_id %s not found", in.UserExternalID)))
		case duplicates.Has(in.ExternalID):
			out.add(rejected(in.ExternalID, ReasonDuplicate, bankDuplicateMessage(in)))
		default:
			out.add(im.createBank(ctx, in, userID))
		}
	}
	im.recordRun(ctx, models.EntityTypeBank, started, out)
	return out, nil
}

// ImportTransactions imports transactions. Bank resolution and the bulk transaction
// mapping lookup run in parallel; the amount/date heuristic and creation are sequential.
func (im *Importer) ImportTransactions(ctx context.Context, transactions []TransactionInput) (BatchResult, error) {
	started := im.now()
	inputs := make([]TransactionInput, len(transactions))
	invalid := make(map[int]string)
	bankExternalIDs := make([]string, 0, len(transactions))
	externalIDs := make([]string, 0, len(transactions))
	for i, transaction := range transactions {
		inputs[i] = transaction.normalized()
		if msg := inputs[i].validate(); msg != "" {
			invalid[i] = msg
			continue
		}
		bankExternalIDs = append(bankExternalIDs, inputs[i].BankExternalID)
		externalIDs = append(externalIDs, inputs[i].ExternalID)
	}

	var bankIDs map[string]string
	var mapped duplicate.Set
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var errBanks error
		bankIDs, errBanks = im.mappings.GetBatchInternalIDs(gctx, bankExternalIDs, models.EntityTypeBank, im.Module())
		return errBanks
	})
	g.Go(func() error {
		var errMapped error
		mapped, errMapped = im.detector.MappedExternalIDs(gctx, externalIDs, models.EntityTypeTransaction)
		return errMapped
	})
	if errWait := g.Wait(); errWait != nil {
		return BatchResult{}, fmt.Errorf("importer: resolve transactions: %w", errWait)
	}

	candidates := make([]duplicate.TransactionCandidate, 0, len(inputs))
	for i, in := range inputs {
		if invalid[i] != "" {
			continue
		}
		candidates = append(candidates, duplicate.TransactionCandidate{
			ExternalID:      in.ExternalID,
			BankExternalID:  in.BankExternalID,
			Amount:          *in.Amount,
			TransactionDate: in.TransactionDate,
		})
	}
	duplicates, err := im.detector.ClassifyTransactions(ctx, candidates, bankIDs, mapped)
	if err != nil {
		return BatchResult{}, fmt.Errorf("importer: detect duplicate transactions: %w", err)
	}

	out := newBatch(len(inputs))
	for i, in := range inputs {
		if invalid[i] != "" {
			out.add(rejected(in.ExternalID, ReasonInvalid, invalid[i]))
			continue
		}
		bankID, ok := bankIDs[in.BankExternalID]
		switch {
		case !ok:
			out.add(rejected(in.ExternalID, ReasonMissingReference, fmt.Sprintf("Bank with external_id %s not found", in.BankExternalID)))
		case duplicates.Has(in.ExternalID):
			out.add(rejected(in.ExternalID, ReasonDuplicate, transactionDuplicateMessage))
		default:
			out.add(im.createTransaction(ctx, in, bankID))
		}
	}
	im.recordRun(ctx, models.EntityTypeTransaction, started, out)
	return out, nil
}

func newBatch(size int) BatchResult {
	return BatchResult{Results: make([]Result, 0, size)}
}
