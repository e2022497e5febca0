package endpoint

// Kind is one of the five events spec.md §4.5/§5 dispatches on.
type Kind int

const (
	NetworkLayerReady Kind = iota
	PhysicalLayerReady
	FrameReceived
	DataTimeout
	AckTimeout
)

func (k Kind) String() string {
	switch k {
	case NetworkLayerReady:
		return "NETWORK_LAYER_READY"
	case PhysicalLayerReady:
		return "PHYSICAL_LAYER_READY"
	case FrameReceived:
		return "FRAME_RECEIVED"
	case DataTimeout:
		return "DATA_TIMEOUT"
	case AckTimeout:
		return "ACK_TIMEOUT"
	default:
		return "UNKNOWN_EVENT"
	}
}

// Event is the tagged value wait_for_event returns in the original design;
// here it is pushed onto the endpoint rather than pulled, but carries the
// same payload: an arg for DATA_TIMEOUT (the timer slot) and a raw frame
// buffer for FRAME_RECEIVED.
type Event struct {
	Kind  Kind
	Frame []byte // FrameReceived only
	Slot  uint8  // DataTimeout only
}
