package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/JoseGikaara/instantsite-sub000/internal/domain"
	"github.com/JoseGikaara/instantsite-sub000/internal/domain/model"
	"github.com/JoseGikaara/instantsite-sub000/internal/domain/ports/repository"
)

// RedeemReceipt reports a successful redemption.
type RedeemReceipt struct {
	CreditsGranted int
	NewBalance     int
	PackageName    string
}

// RedemptionUseCase consumes one-time prepaid codes. Marking the code
// redeemed and crediting the balance commit together or not at all: the code
// row is locked for the transaction and the redeemed flag flips through a
// conditional update, so concurrent attempts resolve to exactly one winner.
type RedemptionUseCase struct {
	codes    repository.RedemptionCodeRepository
	packages repository.CreditPackageRepository
	ledger   *LedgerUseCase
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewRedemptionUseCase(codes repository.RedemptionCodeRepository, packages repository.CreditPackageRepository, ledger *LedgerUseCase, tm repository.TransactionManager, logger *zerolog.Logger) *RedemptionUseCase {
	l := logger.With().Str("component", "RedemptionUC").Logger()
	return &RedemptionUseCase{codes: codes, packages: packages, ledger: ledger, tm: tm, log: &l}
}

// Redeem normalizes rawCode and credits the agent the package amount exactly
// once per valid code.
func (uc *RedemptionUseCase) Redeem(ctx context.Context, agentID, rawCode string) (*RedeemReceipt, error) {
	norm := model.NormalizeCode(rawCode)
	if norm == "" {
		return nil, domain.ErrCodeNotFound
	}

	var receipt RedeemReceipt
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		code, err := uc.codes.FindByCodeForUpdate(ctx, tx, norm)
		if err != nil {
			return err
		}
		if code.IsRedeemed {
			return domain.ErrCodeAlreadyRedeemed
		}
		now := time.Now()
		if code.Expired(now) {
			return domain.ErrCodeExpired
		}
		pkg, err := uc.packages.FindByID(ctx, tx, code.PackageID)
		if err != nil {
			return err
		}
		if err := uc.codes.MarkRedeemed(ctx, tx, code.ID, agentID, now); err != nil {
			return err
		}
		newBalance, err := uc.ledger.Credit(ctx, tx, agentID, pkg.Credits, model.ReasonRedeem)
		if err != nil {
			return err
		}
		receipt = RedeemReceipt{CreditsGranted: pkg.Credits, NewBalance: newBalance, PackageName: pkg.Name}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("agent_id", agentID).Int("credits", receipt.CreditsGranted).Msg("code redeemed")
	return &receipt, nil
}

// MintCodes creates count unredeemed codes for a package. Admin tooling only.
func (uc *RedemptionUseCase) MintCodes(ctx context.Context, packageID string, count int, expiresAt *time.Time) ([]string, error) {
	if count <= 0 || count > 1000 {
		return nil, domain.ErrInvalidArgument
	}
	if _, err := uc.packages.FindByID(ctx, repository.NoTx, packageID); err != nil {
		return nil, err
	}

	out := make([]string, 0, count)
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		for i := 0; i < count; i++ {
			raw, err := generateRedemptionCode()
			if err != nil {
				return err
			}
			code := &model.RedemptionCode{
				ID:        uuid.NewString(),
				Code:      model.NormalizeCode(raw),
				PackageID: packageID,
				CreatedAt: time.Now(),
				ExpiresAt: expiresAt,
			}
			if err := uc.codes.Save(ctx, tx, code); err != nil {
				return err
			}
			out = append(out, raw)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
