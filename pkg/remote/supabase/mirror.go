package supabase

import (
	"context"
	"errors"
	"net/http"

	"tableflip.dev/compound/pkg/remote"
)

// Mirror is a remote.Mirror backed by a Supabase table.
type Mirror struct {
	client *Client
	table  string
}

var _ remote.Mirror = (*Mirror)(nil)

// Open builds a Mirror from cfg. httpClient may be nil.
func Open(cfg remote.Config, httpClient *http.Client) (*Mirror, error) {
	if cfg.URL == "" || cfg.Key == "" {
		return nil, remote.ErrNotConfigured
	}
	c, err := New(Config{URL: cfg.URL, APIKey: cfg.Key, HTTPClient: httpClient})
	if err != nil {
		return nil, err
	}
	return &Mirror{client: c, table: cfg.TableName()}, nil
}

// Upsert sends rows in at most two requests. PostgREST takes the column set of
// a bulk insert from its first object, so rows carrying an analysis go apart
// from rows that must leave the stored analysis alone.
func (m *Mirror) Upsert(ctx context.Context, rows []remote.Row) error {
	var with, without []remote.Row
	for _, r := range rows {
		if r.Analysis != nil {
			with = append(with, r)
		} else {
			without = append(without, r)
		}
	}
	for _, batch := range [][]remote.Row{without, with} {
		if len(batch) == 0 {
			continue
		}
		resp, err := m.client.From(m.table).Upsert("id").Insert(ctx, batch)
		if err != nil {
			return err
		}
		if err := resp.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mirror) SelectAll(ctx context.Context) ([]remote.Row, error) {
	resp, err := m.client.From(m.table).Select("*").Order("id", false).Execute(ctx)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	rows := make([]remote.Row, 0)
	if err := resp.JSON(&rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (m *Mirror) SetAnalysis(ctx context.Context, id, analysis string) error {
	if id == "" {
		return errors.New("supabase: id required")
	}
	resp, err := m.client.From(m.table).Eq("id", id).Update(ctx, map[string]string{"analysis": analysis})
	if err != nil {
		return err
	}
	return resp.Err()
}

func (m *Mirror) Close() error {
	m.client.httpClient.CloseIdleConnections()
	return nil
}
