package service

// Events pushed to connected dashboards so they refetch.
const (
	EventPaymentRequestUpdated = "payment_request.updated"
	EventDocumentUpdated       = "document.updated"
	EventPhotosReordered       = "photos.reordered"
	EventRecordChanged         = "record.changed"
)

// EventPublisher fans an event out to live clients. Publishing never blocks
// the caller and never fails a mutation.
type EventPublisher interface {
	Publish(event string, data interface{})
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, interface{}) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}

// URLResolver maps a stored document path to its public URL.
type URLResolver interface {
	URL(rel string) string
}

// payload is the data of a published event.
type payload = map[string]interface{}
