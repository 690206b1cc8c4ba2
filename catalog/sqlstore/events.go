package sqlstore

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/ecogroup/ecgsite/catalog"
	"github.com/ecogroup/ecgsite/db/sqldb"
)

// publish goes through the database when it can fan out to every instance
func (s *Store) publish(ctx context.Context, ev catalog.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[ERROR][CATALOG] event marshal: %v", err)
		return
	}
	err = s.db.Notify(ctx, catalog.EventsChannel, string(payload))
	if errors.Is(err, sqldb.ErrNotSupported) {
		s.hub.Publish(ev)
		return
	}
	if err != nil {
		log.Printf("[WARN][CATALOG] notify %s failed: %v", catalog.EventsChannel, err)
	}
}

func (s *Store) Events(ctx context.Context) (<-chan catalog.Event, error) {
	notes, err := s.db.Listen(ctx, catalog.EventsChannel)
	if errors.Is(err, sqldb.ErrNotSupported) {
		return s.hub.Subscribe(ctx), nil
	}
	if err != nil {
		return nil, err
	}
	out := make(chan catalog.Event)
	go func() {
		defer close(out)
		for n := range notes {
			var ev catalog.Event
			if err := json.Unmarshal([]byte(n.Payload), &ev); err != nil {
				log.Printf("[WARN][CATALOG] bad event payload: %v", err)
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
