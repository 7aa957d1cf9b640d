// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/relabs-tech/find_north/internal/config"
	"github.com/relabs-tech/find_north/internal/heading"
	"github.com/relabs-tech/find_north/internal/mag"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// badge size matches the 128x64 OLED the board carries.
const (
	badgeWidth  = 128
	badgeHeight = 64
)

// webState caches the latest MQTT messages and fans heading reports out
// to websocket clients.
type webState struct {
	mu          sync.RWMutex
	report      heading.Report
	haveReport  bool
	reading     mag.Reading
	haveReading bool
	clients     map[chan heading.Report]struct{}
}

func newWebState() *webState {
	return &webState{clients: make(map[chan heading.Report]struct{})}
}

func (s *webState) onReport(payload []byte) {
	var rep heading.Report
	if err := json.Unmarshal(payload, &rep); err != nil {
		log.Printf("web: heading unmarshal error: %v", err)
		return
	}

	s.mu.Lock()
	s.report = rep
	s.haveReport = true
	for ch := range s.clients {
		// Slow clients miss updates rather than stall the MQTT callback.
		select {
		case ch <- rep:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *webState) onReading(payload []byte) {
	var r mag.Reading
	if err := json.Unmarshal(payload, &r); err != nil {
		log.Printf("web: mag unmarshal error: %v", err)
		return
	}
	s.mu.Lock()
	s.reading = r
	s.haveReading = true
	s.mu.Unlock()
}

func (s *webState) subscribe() chan heading.Report {
	ch := make(chan heading.Report, 8)
	s.mu.Lock()
	s.clients[ch] = struct{}{}
	if s.haveReport {
		ch <- s.report
	}
	s.mu.Unlock()
	return ch
}

func (s *webState) unsubscribe(ch chan heading.Report) {
	s.mu.Lock()
	delete(s.clients, ch)
	s.mu.Unlock()
}

func (s *webState) handleHeading(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	rep, ok := s.report, s.haveReport
	s.mu.RUnlock()

	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, rep)
}

func (s *webState) handleMag(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	rd, ok := s.reading, s.haveReading
	s.mu.RUnlock()

	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, rd)
}

func (s *webState) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ch := s.subscribe()
	defer s.unsubscribe(ch)

	// Reader goroutine only watches for the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("web: websocket error: %v", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case rep := <-ch:
			if err := conn.WriteJSON(rep); err != nil {
				log.Printf("web: websocket write error: %v", err)
				return
			}
		}
	}
}

func (s *webState) handleBadge(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	rep, ok := s.report, s.haveReport
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, renderBadge(rep, ok)); err != nil {
		log.Printf("web: png encode error: %v", err)
	}
}

// renderBadge draws the same three lines the OLED shows.
func renderBadge(rep heading.Report, ok bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, badgeWidth, badgeHeight))

	bg := color.RGBA{0x20, 0x20, 0x20, 0xFF}
	if ok && rep.Facing {
		bg = color.RGBA{0x10, 0x80, 0x30, 0xFF}
	}
	draw.Draw(img, img.Bounds(), &image.Uniform{bg}, image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: basicfont.Face7x13,
	}

	lines := []string{"FIND NORTH", "waiting..."}
	if ok {
		state := "searching"
		if rep.Facing {
			state = "NORTH"
		}
		lines = []string{
			"FIND NORTH",
			fmt.Sprintf("%s (LED %d)", state, rep.LED),
			fmt.Sprintf("x%d y%d", rep.X, rep.Y),
			fmt.Sprintf("z%d", rep.Z),
		}
	}
	for i, line := range lines {
		drawer.Dot = fixed.P(2, 13*(i+1))
		drawer.DrawString(line)
	}
	return img
}

func (s *webState) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/heading", s.handleHeading)
	mux.HandleFunc("/api/mag", s.handleMag)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/badge.png", s.handleBadge)
	mux.Handle("/", http.FileServer(http.Dir("web")))
	return mux
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

// RunWeb subscribes to the heading and raw topics and serves them over HTTP.
func RunWeb(cfg *config.Config) error {
	state := newWebState()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicHeading, 0, func(_ mqtt.Client, msg mqtt.Message) {
		state.onReport(msg.Payload())
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}

	token = client.Subscribe(cfg.TopicMagRaw, 0, func(_ mqtt.Client, msg mqtt.Message) {
		state.onReading(msg.Payload())
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: subscribed to %s and %s", cfg.TopicHeading, cfg.TopicMagRaw)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web: server listening on %s", addr)
	return http.ListenAndServe(addr, state.routes())
}
