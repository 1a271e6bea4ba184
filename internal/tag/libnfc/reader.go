// Package libnfc polls a USB NFC reader for NDEF tags.
package libnfc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clausecker/freefare"
	"github.com/clausecker/nfc/v2"
	"go.uber.org/zap"

	"tagprint/internal/tag"
)

const (
	Source = "libnfc"

	userStartPage = 4
	// last user page of an NTAG216, the largest tag in the family
	userEndPage = 225
)

type Config struct {
	// Device is a libnfc connection string; empty picks the first reader.
	Device       string
	PollInterval time.Duration
	Logger       *zap.Logger
}

// Reader emits an event for every tag placed on the reader.
type Reader struct {
	cfg    Config
	log    *zap.Logger
	events chan<- *tag.Event
}

func New(cfg Config, events chan<- *tag.Event) *Reader {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 250 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Reader{cfg: cfg, log: cfg.Logger.Named("libnfc"), events: events}
}

// Run opens the reader and polls it until ctx is canceled.
func (r *Reader) Run(ctx context.Context) error {
	dev, err := nfc.Open(r.cfg.Device)
	if err != nil {
		return fmt.Errorf("open nfc device %q: %w", r.cfg.Device, err)
	}
	defer dev.Close()

	if err := dev.InitiatorInit(); err != nil {
		return fmt.Errorf("init nfc device: %w", err)
	}
	r.log.Info("reader ready", zap.String("device", dev.String()))

	return r.poll(ctx, func() ([]scanned, error) { return readTags(dev, r.log) })
}

// scanned is the raw user memory of one tag.
type scanned struct {
	uid    string
	memory []byte
}

// poll calls scan every interval and emits tags that were not on the
// reader during the previous round.
func (r *Reader) poll(ctx context.Context, scan func() ([]scanned, error)) error {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	present := make(map[string]bool)
	for {
		tags, err := scan()
		if err != nil {
			r.log.Debug("poll failed", zap.Error(err))
		} else {
			seen := make(map[string]bool, len(tags))
			for _, t := range tags {
				seen[t.uid] = true
				if present[t.uid] {
					continue
				}
				if err := r.emit(ctx, t); err != nil {
					if ctx.Err() != nil {
						return nil
					}
					r.log.Warn("unreadable tag", zap.String("uid", t.uid), zap.Error(err))
				}
			}
			present = seen
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (r *Reader) emit(ctx context.Context, t scanned) error {
	ev, err := decode(t)
	if err != nil {
		return err
	}
	select {
	case r.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func decode(t scanned) (*tag.Event, error) {
	raw, err := tag.ExtractNDEF(t.memory)
	if err != nil {
		return nil, err
	}
	records, err := tag.ParseMessage(raw)
	if err != nil {
		return nil, err
	}
	return &tag.Event{
		Source:    Source,
		UID:       strings.ToUpper(t.uid),
		ScannedAt: time.Now(),
		Messages:  []tag.Message{{Records: records}},
	}, nil
}

func readTags(dev nfc.Device, log *zap.Logger) ([]scanned, error) {
	tags, err := freefare.GetTags(dev)
	if err != nil {
		return nil, err
	}

	var out []scanned
	for _, t := range tags {
		ul, ok := t.(freefare.UltralightTag)
		if !ok {
			log.Debug("skipping unsupported tag", zap.String("uid", t.UID()), zap.String("type", fmt.Sprintf("%T", t)))
			continue
		}
		memory, err := readUserMemory(ul)
		if err != nil {
			log.Debug("read failed", zap.String("uid", ul.UID()), zap.Error(err))
			continue
		}
		out = append(out, scanned{uid: ul.UID(), memory: memory})
	}
	return out, nil
}

// readUserMemory reads pages from the first user page until the NDEF TLV is
// complete or the tag runs out of pages.
func readUserMemory(t freefare.UltralightTag) ([]byte, error) {
	if err := t.Connect(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer t.Disconnect()

	var memory []byte
	for page := userStartPage; page <= userEndPage; page++ {
		data, err := t.ReadPage(byte(page))
		if err != nil {
			if len(memory) == 0 {
				return nil, fmt.Errorf("read page %d: %w", page, err)
			}
			break
		}
		memory = append(memory, data[:]...)
		if _, err := tag.ExtractNDEF(memory); !errors.Is(err, tag.ErrMalformedMessage) {
			break
		}
	}
	return memory, nil
}
