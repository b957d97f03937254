// Package websocket is the plugin message surface. The plugin UI connects
// over Socket.IO, joins its document, and drives the canvas and project
// store through one event per message type. Every event is handled
// atomically; request/response pairs are answered by emitting back to the
// sender (and through the client ack callback when one is attached).
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"motion-director/canvas"
	"motion-director/core"
	"motion-director/paths"

	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

type (
	captureSceneRequest struct {
		TargetScene       *int `json:"targetScene,omitempty"`
		PathSettingsIndex *int `json:"pathSettingsIndex,omitempty"`
		UpdateIndex       *int `json:"updateIndex,omitempty"`
	}

	sceneCapturedResponse struct {
		X                 float64 `json:"x"`
		Y                 float64 `json:"y"`
		Zoom              float64 `json:"zoom"`
		TargetScene       *int    `json:"targetScene,omitempty"`
		PathSettingsIndex *int    `json:"pathSettingsIndex,omitempty"`
		UpdateIndex       *int    `json:"updateIndex,omitempty"`
	}

	updateViewportRequest struct {
		X    float64 `json:"x"`
		Y    float64 `json:"y"`
		Zoom float64 `json:"zoom"`
	}

	resizeRequest struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}

	setProjectRequest struct {
		Name string          `json:"name"`
		Data json.RawMessage `json:"data"`
	}

	getProjectRequest struct {
		Name string `json:"name"`
	}

	projectDataResponse struct {
		Name string          `json:"name"`
		Data json.RawMessage `json:"data"`
	}

	drawPathRequest struct {
		PathData core.PathSpec `json:"pathData"`
	}

	sceneScopeRequest struct {
		SceneIndex *int `json:"sceneIndex,omitempty"`
	}

	controlPointResponse struct {
		SceneIndex *int        `json:"sceneIndex,omitempty"`
		Point      *core.Point `json:"point"`
	}

	moveMarkerRequest struct {
		SceneIndex *int    `json:"sceneIndex,omitempty"`
		X          float64 `json:"x"`
		Y          float64 `json:"y"`
	}
)

// Handler wires Socket.IO events to the canvas hub and project store.
type Handler struct {
	hub      *canvas.Hub
	projects core.ProjectStore

	mu        sync.RWMutex
	documents map[socketio.SocketId]string
}

func NewHandler(hub *canvas.Hub, projects core.ProjectStore) *Handler {
	return &Handler{
		hub:       hub,
		projects:  projects,
		documents: make(map[socketio.SocketId]string),
	}
}

// SetupSocketIO builds the Socket.IO server the plugin UI connects to.
func SetupSocketIO(hub *canvas.Hub, projects core.ProjectStore) *socketio.Server {
	h := NewHandler(hub, projects)

	opts := socketio.DefaultServerOptions()
	opts.SetMaxHttpBufferSize(5000000)
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)
	opts.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})
	srv := socketio.NewServer(nil, opts)

	srv.On("connection", func(clients ...any) {
		socket, ok := clients[0].(*socketio.Socket)
		if !ok {
			return
		}
		h.register(socket)
	})
	return srv
}

func (h *Handler) register(socket *socketio.Socket) {
	logrus.WithField("socket_id", socket.Id()).Debug("Plugin connected")

	socket.On("join-document", func(datas ...any) {
		ack, args := extractAck(datas)
		if len(args) == 0 {
			h.respondError(socket, ack, "join-document", fmt.Errorf("document id is required"))
			return
		}
		documentID, ok := args[0].(string)
		if !ok || documentID == "" {
			h.respondError(socket, ack, "join-document", fmt.Errorf("invalid document id"))
			return
		}

		h.mu.Lock()
		h.documents[socket.Id()] = documentID
		h.mu.Unlock()
		socket.Join(socketio.Room(documentID))

		logrus.WithFields(logrus.Fields{
			"socket_id":   socket.Id(),
			"document_id": documentID,
		}).Info("Plugin joined document")
		respond(socket, ack, "document-joined", map[string]any{"documentId": documentID})
	})

	socket.On("capture-scene", func(datas ...any) {
		h.handleCaptureScene(socket, datas)
	})
	socket.On("update-viewport", func(datas ...any) {
		h.handleUpdateViewport(socket, datas)
	})
	socket.On("resize", func(datas ...any) {
		h.handleResize(socket, datas)
	})
	socket.On("set-project", func(datas ...any) {
		h.handleSetProject(socket, datas)
	})
	socket.On("get-project", func(datas ...any) {
		h.handleGetProject(socket, datas)
	})
	socket.On("draw-path", func(datas ...any) {
		h.handleDrawPath(socket, datas)
	})
	socket.On("hide-paths", func(datas ...any) {
		h.handleClear(socket, datas, false)
	})
	socket.On("hide-path", func(datas ...any) {
		h.handleClear(socket, datas, true)
	})
	socket.On("delete-scene-path", func(datas ...any) {
		h.handleClear(socket, datas, true)
	})
	socket.On("get-control-point", func(datas ...any) {
		h.handleGetControlPoint(socket, datas)
	})
	socket.On("move-marker", func(datas ...any) {
		h.handleMoveMarker(socket, datas)
	})

	socket.On("disconnect", func(datas ...any) {
		h.mu.Lock()
		delete(h.documents, socket.Id())
		h.mu.Unlock()
		socket.RemoveAllListeners("")
		socket.Disconnect(true)
	})
}

// canvasFor resolves the canvas the socket is bound to via join-document.
func (h *Handler) canvasFor(socket *socketio.Socket) (*canvas.Canvas, error) {
	h.mu.RLock()
	documentID, ok := h.documents[socket.Id()]
	h.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no document joined")
	}
	return h.hub.Get(documentID), nil
}

func (h *Handler) documentFor(socket *socketio.Socket) (string, error) {
	h.mu.RLock()
	documentID, ok := h.documents[socket.Id()]
	h.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("no document joined")
	}
	return documentID, nil
}

func (h *Handler) handleCaptureScene(socket *socketio.Socket, datas []any) {
	ack, args := extractAck(datas)
	c, err := h.canvasFor(socket)
	if err != nil {
		h.respondError(socket, ack, "capture-scene", err)
		return
	}

	var req captureSceneRequest
	if len(args) > 0 {
		if err := decodePayload(args[0], &req); err != nil {
			h.respondError(socket, ack, "capture-scene", err)
			return
		}
	}

	vp := c.Viewport(context.Background())
	respond(socket, ack, "scene-captured", sceneCapturedResponse{
		X:                 vp.X,
		Y:                 vp.Y,
		Zoom:              vp.Zoom,
		TargetScene:       req.TargetScene,
		PathSettingsIndex: req.PathSettingsIndex,
		UpdateIndex:       req.UpdateIndex,
	})
}

func (h *Handler) handleUpdateViewport(socket *socketio.Socket, datas []any) {
	ack, args := extractAck(datas)
	c, err := h.canvasFor(socket)
	if err != nil {
		h.respondError(socket, ack, "update-viewport", err)
		return
	}

	var req updateViewportRequest
	if err := decodeFirst(args, &req); err != nil {
		h.respondError(socket, ack, "update-viewport", err)
		return
	}

	c.SetViewport(context.Background(), core.Viewport{X: req.X, Y: req.Y, Zoom: req.Zoom})
	if ack != nil {
		ack(okPayload())
	}
}

func (h *Handler) handleResize(socket *socketio.Socket, datas []any) {
	ack, args := extractAck(datas)
	c, err := h.canvasFor(socket)
	if err != nil {
		h.respondError(socket, ack, "resize", err)
		return
	}

	var req resizeRequest
	if err := decodeFirst(args, &req); err != nil {
		h.respondError(socket, ack, "resize", err)
		return
	}

	c.Resize(core.PanelSize{Width: req.Width, Height: req.Height})
	if ack != nil {
		ack(okPayload())
	}
}

func (h *Handler) handleSetProject(socket *socketio.Socket, datas []any) {
	ack, args := extractAck(datas)
	documentID, err := h.documentFor(socket)
	if err != nil {
		h.respondError(socket, ack, "set-project", err)
		return
	}

	var req setProjectRequest
	if err := decodeFirst(args, &req); err != nil {
		h.respondError(socket, ack, "set-project", err)
		return
	}
	if req.Name == "" {
		h.respondError(socket, ack, "set-project", fmt.Errorf("project name is required"))
		return
	}

	project := &core.Project{
		Name:    req.Name,
		OwnerID: documentID,
		Data:    req.Data,
	}
	if err := h.projects.Save(context.Background(), project); err != nil {
		logrus.WithFields(logrus.Fields{
			"error":       err,
			"document_id": documentID,
			"name":        req.Name,
		}).Error("Failed to save project")
		h.respondError(socket, ack, "set-project", err)
		return
	}

	respond(socket, ack, "project-saved", map[string]any{"name": req.Name})
}

func (h *Handler) handleGetProject(socket *socketio.Socket, datas []any) {
	ack, args := extractAck(datas)
	documentID, err := h.documentFor(socket)
	if err != nil {
		h.respondError(socket, ack, "get-project", err)
		return
	}

	var req getProjectRequest
	if err := decodeFirst(args, &req); err != nil {
		h.respondError(socket, ack, "get-project", err)
		return
	}

	project, err := h.projects.Get(context.Background(), documentID, req.Name)
	if err != nil {
		if errors.Is(err, core.ErrProjectNotFound) {
			// Absence is a null response, not a failure.
			respond(socket, ack, "project-data", projectDataResponse{Name: req.Name, Data: nil})
			return
		}
		logrus.WithFields(logrus.Fields{
			"error":       err,
			"document_id": documentID,
			"name":        req.Name,
		}).Error("Failed to get project")
		h.respondError(socket, ack, "get-project", err)
		return
	}

	respond(socket, ack, "project-data", projectDataResponse{Name: req.Name, Data: project.Data})
}

func (h *Handler) handleDrawPath(socket *socketio.Socket, datas []any) {
	ack, args := extractAck(datas)
	c, err := h.canvasFor(socket)
	if err != nil {
		h.respondError(socket, ack, "draw-path", err)
		return
	}

	var req drawPathRequest
	if err := decodeFirst(args, &req); err != nil {
		h.respondError(socket, ack, "draw-path", err)
		return
	}

	registry := paths.NewRegistry(c)
	if !req.PathData.ArcEnabled {
		registry.Clear(context.Background(), req.PathData.SceneIndex)
		if ack != nil {
			ack(okPayload())
		}
		return
	}

	if err := registry.Draw(context.Background(), req.PathData); err != nil {
		h.respondError(socket, ack, "draw-path", err)
		return
	}
	if ack != nil {
		ack(okPayload())
	}
}

// handleClear serves hide-paths (scoped=false), hide-path, and
// delete-scene-path (scoped=true).
func (h *Handler) handleClear(socket *socketio.Socket, datas []any, scoped bool) {
	ack, args := extractAck(datas)
	c, err := h.canvasFor(socket)
	if err != nil {
		h.respondError(socket, ack, "hide-path", err)
		return
	}

	var scope *int
	if scoped {
		var req sceneScopeRequest
		if err := decodeFirst(args, &req); err != nil {
			h.respondError(socket, ack, "hide-path", err)
			return
		}
		if req.SceneIndex == nil {
			h.respondError(socket, ack, "hide-path", fmt.Errorf("scene index is required"))
			return
		}
		scope = req.SceneIndex
	}

	paths.NewRegistry(c).Clear(context.Background(), scope)
	if ack != nil {
		ack(okPayload())
	}
}

func (h *Handler) handleGetControlPoint(socket *socketio.Socket, datas []any) {
	ack, args := extractAck(datas)
	c, err := h.canvasFor(socket)
	if err != nil {
		h.respondError(socket, ack, "get-control-point", err)
		return
	}

	var req sceneScopeRequest
	if len(args) > 0 {
		if err := decodePayload(args[0], &req); err != nil {
			h.respondError(socket, ack, "get-control-point", err)
			return
		}
	}

	point := paths.NewRegistry(c).ControlPoint(context.Background(), req.SceneIndex)
	respond(socket, ack, "control-point", controlPointResponse{
		SceneIndex: req.SceneIndex,
		Point:      point,
	})
}

func (h *Handler) handleMoveMarker(socket *socketio.Socket, datas []any) {
	ack, args := extractAck(datas)
	c, err := h.canvasFor(socket)
	if err != nil {
		h.respondError(socket, ack, "move-marker", err)
		return
	}

	var req moveMarkerRequest
	if err := decodeFirst(args, &req); err != nil {
		h.respondError(socket, ack, "move-marker", err)
		return
	}

	name := paths.MarkerName(req.SceneIndex)
	if err := c.MoveObject(context.Background(), name, core.Point{X: req.X, Y: req.Y}); err != nil {
		h.respondError(socket, ack, "move-marker", err)
		return
	}
	if ack != nil {
		ack(okPayload())
	}
}

func (h *Handler) respondError(socket *socketio.Socket, ack ackFunc, event string, err error) {
	logrus.WithFields(logrus.Fields{
		"socket_id": socket.Id(),
		"event":     event,
		"error":     err,
	}).Warn("Plugin message failed")

	payload := map[string]any{"status": "error", "error": err.Error()}
	if ack != nil {
		ack(payload)
		return
	}
	socket.Emit(event+"-error", payload)
}

func okPayload() map[string]any {
	return map[string]any{"status": "ok"}
}

// respond emits the response event back to the sender and feeds the same
// payload through the ack callback if the client attached one.
func respond(socket *socketio.Socket, ack ackFunc, event string, payload any) {
	socket.Emit(event, payload)
	if ack != nil {
		ack(payload)
	}
}

// decodeFirst decodes the first payload argument into out; a missing
// payload is an error.
func decodeFirst(args []any, out any) error {
	if len(args) == 0 {
		return fmt.Errorf("payload is required")
	}
	return decodePayload(args[0], out)
}

// decodePayload converts a Socket.IO payload (generic JSON maps) into a
// typed request struct.
func decodePayload(data any, out any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

type ackFunc func(payload any)

// extractAck splits a trailing client ack callback off the event
// arguments. Socket.IO delivers acks as funcs of varying shape, so the
// call is built reflectively: the payload goes into the first parameter,
// everything else is zeroed.
func extractAck(datas []any) (ackFunc, []any) {
	if len(datas) == 0 {
		return nil, datas
	}

	value := reflect.ValueOf(datas[len(datas)-1])
	if !value.IsValid() || value.Kind() != reflect.Func {
		return nil, datas
	}
	typ := value.Type()

	ack := func(payload any) {
		if typ.IsVariadic() && typ.NumIn() == 1 {
			value.CallSlice([]reflect.Value{reflect.ValueOf([]any{payload})})
			return
		}
		args := make([]reflect.Value, typ.NumIn())
		for i := range args {
			if i == 0 {
				args[i] = coerceValue(payload, typ.In(i))
			} else {
				args[i] = reflect.Zero(typ.In(i))
			}
		}
		value.Call(args)
	}
	return ack, datas[:len(datas)-1]
}

func coerceValue(v any, target reflect.Type) reflect.Value {
	if v == nil {
		return reflect.Zero(target)
	}
	value := reflect.ValueOf(v)
	if value.Type().AssignableTo(target) {
		return value
	}
	return reflect.Zero(target)
}
