package dispatch

import (
	"encoding/gob"
	"io"
)

// controlEnvelope is one frame written by the parent (controller process)
// to a worker subprocess's stdin: either the one-time init message or a
// repeated task/stop message. gob.Encoder/Decoder already frame
// successive Encode/Decode calls, so no explicit length prefix is needed.
type controlEnvelope struct {
	Kind string // "init", "task", "stop"

	// Kind == "init"
	DeviceID           int
	Seed               int64
	Config             Config
	TaskTimeoutSeconds float64

	// Kind == "task"
	TaskID  uint64
	Payload any
}

const (
	controlInit = "init"
	controlTask = "task"
	controlStop = "stop"
)

// ipcLink wraps the pipes the controller and a worker subprocess use to
// talk: gob-encoded controlEnvelope frames flow one way, gob-encoded
// resultEnvelope frames flow the other.
type ipcLink struct {
	enc *gob.Encoder
	dec *gob.Decoder
}

func newParentLink(toChild io.Writer, fromChild io.Reader) *ipcLink {
	return &ipcLink{enc: gob.NewEncoder(toChild), dec: gob.NewDecoder(fromChild)}
}

func newChildLink(fromParent io.Reader, toParent io.Writer) *ipcLink {
	return &ipcLink{enc: gob.NewEncoder(toParent), dec: gob.NewDecoder(fromParent)}
}

func (l *ipcLink) sendInit(deviceID int, seed int64, cfg Config, taskTimeoutSeconds float64) error {
	return l.enc.Encode(controlEnvelope{
		Kind:               controlInit,
		DeviceID:           deviceID,
		Seed:               seed,
		Config:             cfg,
		TaskTimeoutSeconds: taskTimeoutSeconds,
	})
}

func (l *ipcLink) sendTask(t Task) error {
	return l.enc.Encode(controlEnvelope{Kind: controlTask, TaskID: t.ID, Payload: t.Payload})
}

func (l *ipcLink) sendStop() error {
	return l.enc.Encode(controlEnvelope{Kind: controlStop})
}

func (l *ipcLink) recvControl() (controlEnvelope, error) {
	var c controlEnvelope
	err := l.dec.Decode(&c)
	return c, err
}

func (l *ipcLink) sendResult(e resultEnvelope) error {
	return l.enc.Encode(e)
}

func (l *ipcLink) recvResult() (resultEnvelope, error) {
	var e resultEnvelope
	err := l.dec.Decode(&e)
	return e, err
}
