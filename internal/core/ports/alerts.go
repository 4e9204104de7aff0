package ports

import "context"

const (
	AssetMinted            Topic = "Asset Minted"
	OutboundEmissionFailed Topic = "Outbound Emission Failed"
)

type Topic string

type Alerts interface {
	Publish(ctx context.Context, topic Topic, message interface{}) error
}

type OutboundEmissionFailedAlert struct {
	EmissionID         string
	Asset              string
	Sender             string
	DestinationChainID uint64
	Reason             string
}
