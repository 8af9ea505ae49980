package websocket

import (
	"encoding/base64"
	"encoding/json"

	"facecounter/internal/dto"
	"facecounter/internal/logger"
	"facecounter/internal/model"
)

// Presenter pushes frames and sightings to browser viewers through the hub.
type Presenter struct {
	hub    *HubService
	logger *logger.Logger
}

func NewPresenter(hub *HubService, logger *logger.Logger) *Presenter {
	return &Presenter{hub: hub, logger: logger}
}

// ShowFrame broadcasts the frame when anyone is watching.
func (p *Presenter) ShowFrame(jpeg []byte) {
	if p.hub.GetClientCount() == 0 {
		return
	}
	p.send(dto.FrameMessage{
		Type:  dto.MessageFrame,
		Image: base64.StdEncoding.EncodeToString(jpeg),
	})
}

// ShowSighting broadcasts a counted visitor.
func (p *Presenter) ShowSighting(s model.Sighting) {
	p.send(dto.SightingMessage{
		Type:      dto.MessageSighting,
		Label:     s.Label,
		Timestamp: s.Timestamp.Format(model.TimestampLayout),
		Count:     s.Count,
	})
}

// ShowCount broadcasts the counter of a freshly started day.
func (p *Presenter) ShowCount(day model.Date, count int) {
	p.send(dto.CountMessage{
		Type:  dto.MessageCount,
		Date:  day.String(),
		Count: count,
	})
}

func (p *Presenter) send(v interface{}) {
	msg, err := json.Marshal(v)
	if err != nil {
		p.logger.Error("Error encoding message: %v", err)
		return
	}
	p.hub.Broadcast(msg)
}
