package ledger

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/sanchit-4/universal-nft/internal/core/ports"
)

// VerifySigner checks that the signer is derived from the given program id with the seeds it
// presents. Only program derived signers are ever honoured as authorities.
func VerifySigner(programID common.PublicKey, signer ports.Signer) error {
	if signer == nil {
		return fmt.Errorf("%w: missing signer", ports.ErrInvalidAuthority)
	}
	address, err := common.CreateProgramAddress(signer.Seeds(), programID)
	if err != nil {
		return fmt.Errorf("%w: %s", ports.ErrInvalidAuthority, err)
	}
	if address != signer.PublicKey() {
		return fmt.Errorf(
			"%w: %s is not derived from program %s",
			ports.ErrInvalidAuthority, signer.PublicKey().ToBase58(), programID.ToBase58(),
		)
	}
	return nil
}
