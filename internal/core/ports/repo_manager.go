package ports

import "github.com/sanchit-4/universal-nft/internal/core/domain"

type RepoManager interface {
	Events() domain.EventRepository
	Config() domain.ConfigRepository
	Receipts() domain.ReceiptRepository
	Emissions() domain.EmissionRepository
	Close()
}
