package canvas

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Hub maps open document IDs to their canvases, creating them on demand.
type Hub struct {
	mu        sync.RWMutex
	documents map[string]*Canvas
}

func NewHub() *Hub {
	return &Hub{documents: make(map[string]*Canvas)}
}

// Get returns the canvas for a document, creating it if the document has
// not been seen before.
func (h *Hub) Get(documentID string) *Canvas {
	h.mu.RLock()
	c, ok := h.documents[documentID]
	h.mu.RUnlock()
	if ok {
		return c
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.documents[documentID]; ok {
		return c
	}

	c = New()
	h.documents[documentID] = c
	logrus.WithField("document_id", documentID).Info("Canvas opened")
	return c
}

// Close drops a document's canvas.
func (h *Hub) Close(documentID string) {
	h.mu.Lock()
	delete(h.documents, documentID)
	h.mu.Unlock()
}

// Len reports how many documents currently have a canvas.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.documents)
}
