package utils

// Latencies in microseconds, reminder outcomes by status.
type Metric struct {
	StorageRead      chan float64
	StorageWrite     chan float64
	NotificationSend chan float64
	ReminderResult   chan string
}

func NewMetric() *Metric {
	return &Metric{
		StorageRead:      make(chan float64, 64),
		StorageWrite:     make(chan float64, 64),
		NotificationSend: make(chan float64, 64),
		ReminderResult:   make(chan string, 64),
	}
}

// Offer sends without blocking; samples are dropped when nobody collects.
func Offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}
