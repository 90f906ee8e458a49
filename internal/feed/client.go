// Package feed fetches and parses the upstream real-time vehicle feed.
// The feed is a GTFS-realtime FeedMessage rendered as JSON, so it is
// decoded with protojson into the canonical bindings.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/encoding/protojson"
)

// ErrUnavailable marks any network or parse failure of the upstream feed.
// A tick that sees it aborts before any sheet write.
var ErrUnavailable = errors.New("feed unavailable")

// Client fetches live snapshots from the upstream feed. It is stateless.
type Client struct {
	feedURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewClient creates a feed client with the standard 10 s timeout.
func NewClient(feedURL string, logger *slog.Logger) *Client {
	return &Client{
		feedURL: feedURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// Fetch issues one GET to the feed and parses the response. The query
// carries an epoch-millis `_` and a random `salt` to defeat intermediate
// caches.
func (c *Client) Fetch(ctx context.Context) (*Snapshot, error) {
	target, err := c.cacheBustedURL()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d from feed", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	msg := &gtfs.FeedMessage{}
	opts := protojson.UnmarshalOptions{DiscardUnknown: true}
	if err := opts.Unmarshal(body, msg); err != nil {
		return nil, fmt.Errorf("%w: parse feed: %v", ErrUnavailable, err)
	}

	snap := extract(msg)
	snap.FetchedAt = time.Now()

	c.logger.Info("feed fetched",
		"vehicles", len(snap.Vehicles),
		"trip_updates", len(snap.TripUpdates),
	)
	return snap, nil
}

func (c *Client) cacheBustedURL() (string, error) {
	u, err := url.Parse(c.feedURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("_", strconv.FormatInt(time.Now().UnixMilli(), 10))
	q.Set("salt", strconv.FormatInt(rand.Int63(), 36))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// extract pulls vehicle positions and trip updates out of the message.
// Vehicles require a position; trip updates require a vehicle id and at
// least one stop-time update, the last of which names the terminal stop.
func extract(msg *gtfs.FeedMessage) *Snapshot {
	snap := &Snapshot{}

	for _, entity := range msg.GetEntity() {
		tu := entity.GetTripUpdate()
		if tu == nil || tu.GetVehicle().GetId() == "" {
			continue
		}
		updates := tu.GetStopTimeUpdate()
		if len(updates) == 0 {
			continue
		}
		update := TripUpdate{
			VehicleID:      tu.GetVehicle().GetId(),
			TerminalStopID: updates[len(updates)-1].GetStopId(),
		}
		if arrival := updates[0].GetArrival(); arrival != nil && arrival.Delay != nil {
			d := arrival.GetDelay()
			update.DelaySeconds = &d
		}
		snap.TripUpdates = append(snap.TripUpdates, update)
	}

	for _, entity := range msg.GetEntity() {
		vp := entity.GetVehicle()
		if vp == nil || vp.GetPosition() == nil {
			continue
		}
		snap.Vehicles = append(snap.Vehicles, Vehicle{
			ID:         vp.GetVehicle().GetId(),
			Label:      vp.GetVehicle().GetLabel(),
			RouteIDRaw: vp.GetTrip().GetRouteId(),
			StartTime:  vp.GetTrip().GetStartTime(),
			Lat:        float64(vp.GetPosition().GetLatitude()),
			Lon:        float64(vp.GetPosition().GetLongitude()),
		})
	}

	return snap
}
