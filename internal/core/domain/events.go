package domain

const BridgeTopic = "bridge"

type EventType int

const (
	EventTypeUndefined EventType = iota
	EventTypeAssetMinted
	EventTypeAssetLocked
	EventTypeOutboundMessageEmitted
	EventTypeOutboundEmissionFailed
)

type Event interface {
	GetTopic() string
	GetType() EventType
}

// Id of every bridge event is the base58 mint address of the asset it refers to.
type AssetMinted struct {
	Id            string
	Type          EventType
	Recipient     string
	Name          string
	Symbol        string
	URI           string
	OriginChainID uint64
	OriginAddress string
	Nonce         uint64
	Timestamp     int64
}

type AssetLocked struct {
	Id        string
	Type      EventType
	Holder    string
	Custody   string
	Timestamp int64
}

type OutboundMessageEmitted struct {
	Id                 string
	Type               EventType
	MessageID          string
	DestinationChainID uint64
	DestinationAddress string
	Timestamp          int64
}

type OutboundEmissionFailed struct {
	Id                 string
	Type               EventType
	EmissionID         string
	DestinationChainID uint64
	Reason             string
	Timestamp          int64
}

func (e AssetMinted) GetTopic() string            { return BridgeTopic }
func (e AssetMinted) GetType() EventType          { return EventTypeAssetMinted }
func (e AssetLocked) GetTopic() string            { return BridgeTopic }
func (e AssetLocked) GetType() EventType          { return EventTypeAssetLocked }
func (e OutboundMessageEmitted) GetTopic() string { return BridgeTopic }
func (e OutboundMessageEmitted) GetType() EventType {
	return EventTypeOutboundMessageEmitted
}
func (e OutboundEmissionFailed) GetTopic() string { return BridgeTopic }
func (e OutboundEmissionFailed) GetType() EventType {
	return EventTypeOutboundEmissionFailed
}
