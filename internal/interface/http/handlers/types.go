package handlers

import (
	"encoding/hex"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/sanchit-4/universal-nft/internal/core/application"
	"github.com/sanchit-4/universal-nft/internal/core/domain"
)

type InitializeRequest struct {
	Gateway string `json:"gateway"`
}

type OutboundRequest struct {
	Asset              string `json:"asset"`
	DestinationChainID uint64 `json:"destination_chain_id"`
	// DestinationAddress is hex encoded.
	DestinationAddress string `json:"destination_address"`
	Gateway            string `json:"gateway"`
}

type Config struct {
	Address        string `json:"address"`
	ProgramID      string `json:"program_id"`
	Authority      string `json:"authority"`
	GatewayAddress string `json:"gateway_address"`
	Bump           uint8  `json:"bump"`
	CreatedAt      int64  `json:"created_at"`
}

type Origin struct {
	ChainID uint64 `json:"chain_id"`
	Address string `json:"address"`
	Nonce   uint64 `json:"nonce"`
}

type Asset struct {
	Mint          string `json:"mint"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	URI           string `json:"uri"`
	MintAuthority string `json:"mint_authority"`
	Supply        uint64 `json:"supply"`
	Owner         string `json:"owner"`
	Origin        Origin `json:"origin"`
}

type AssetInfo struct {
	Mint            string `json:"mint"`
	Name            string `json:"name,omitempty"`
	Symbol          string `json:"symbol,omitempty"`
	URI             string `json:"uri,omitempty"`
	UpdateAuthority string `json:"update_authority,omitempty"`
	IsMutable       bool   `json:"is_mutable"`
	MintAuthority   string `json:"mint_authority"`
	FreezeAuthority string `json:"freeze_authority,omitempty"`
	Supply          uint64 `json:"supply"`
	Locked          bool   `json:"locked"`
	CustodyAccount  string `json:"custody_account"`
}

type Balance struct {
	Asset   string `json:"asset"`
	Owner   string `json:"owner"`
	Balance uint64 `json:"balance"`
}

type Message struct {
	ID                 string `json:"id"`
	OriginChainID      uint64 `json:"origin_chain_id"`
	OriginAddress      string `json:"origin_address"`
	DestinationChainID uint64 `json:"destination_chain_id"`
	DestinationAddress string `json:"destination_address"`
	Nonce              uint64 `json:"nonce"`
	Payload            string `json:"payload"`
}

type PendingEmission struct {
	ID        string  `json:"id"`
	Asset     string  `json:"asset"`
	Sender    string  `json:"sender"`
	Message   Message `json:"message"`
	Reason    string  `json:"reason"`
	CreatedAt int64   `json:"created_at"`
}

func toConfig(cfg domain.BridgeConfig) Config {
	return Config{
		Address:        cfg.Address.ToBase58(),
		ProgramID:      cfg.ProgramID.ToBase58(),
		Authority:      cfg.Authority.ToBase58(),
		GatewayAddress: cfg.GatewayAddress.ToBase58(),
		Bump:           cfg.Bump,
		CreatedAt:      cfg.CreatedAt.Unix(),
	}
}

func toAsset(asset domain.AssetInstance) Asset {
	return Asset{
		Mint:          asset.Mint.ToBase58(),
		Name:          asset.Metadata.Name,
		Symbol:        asset.Metadata.Symbol,
		URI:           asset.Metadata.URI,
		MintAuthority: asset.MintAuthority.ToBase58(),
		Supply:        asset.Supply,
		Owner:         asset.Owner.ToBase58(),
		Origin: Origin{
			ChainID: asset.Origin.ChainID,
			Address: hex.EncodeToString(asset.Origin.Address),
			Nonce:   asset.Origin.Nonce,
		},
	}
}

func toAssetInfo(info application.AssetInfo) AssetInfo {
	resp := AssetInfo{
		Mint:           info.Mint.ToBase58(),
		MintAuthority:  info.MintAuthority.ToBase58(),
		Supply:         info.Supply,
		Locked:         info.Locked,
		CustodyAccount: info.CustodyAccount.ToBase58(),
	}
	if info.FreezeAuthority != (common.PublicKey{}) {
		resp.FreezeAuthority = info.FreezeAuthority.ToBase58()
	}
	if info.Metadata != nil {
		resp.Name = info.Metadata.Name
		resp.Symbol = info.Metadata.Symbol
		resp.URI = info.Metadata.URI
		resp.UpdateAuthority = info.Metadata.UpdateAuthority.ToBase58()
		resp.IsMutable = info.Metadata.IsMutable
	}
	return resp
}

func toMessage(msg domain.CrossChainMessage) Message {
	return Message{
		ID:                 msg.ID(),
		OriginChainID:      msg.OriginChainID,
		OriginAddress:      hex.EncodeToString(msg.OriginAddress),
		DestinationChainID: msg.DestinationChainID,
		DestinationAddress: hex.EncodeToString(msg.DestinationAddress),
		Nonce:              msg.Nonce,
		Payload:            hex.EncodeToString(msg.Payload),
	}
}

func toPendingEmission(emission domain.PendingEmission) PendingEmission {
	return PendingEmission{
		ID:        emission.ID,
		Asset:     emission.Asset.ToBase58(),
		Sender:    emission.Sender.ToBase58(),
		Message:   toMessage(emission.Message),
		Reason:    emission.Reason,
		CreatedAt: emission.CreatedAt.Unix(),
	}
}
