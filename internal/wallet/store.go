package wallet

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"mask-wallet/go-backend/internal/securestore"
)

// Store persists the wallet state encrypted at rest. An empty path or
// secret means in-memory only, which is what tests run with.
type Store struct {
	path   string
	secret string
	log    *slog.Logger
}

func NewStore(path, secret string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		path:   strings.TrimSpace(path),
		secret: strings.TrimSpace(secret),
		log:    log,
	}
}

func (st *Store) Bootstrap() (*State, error) {
	if st.path == "" || st.secret == "" {
		return NewState(), nil
	}
	raw, err := os.ReadFile(st.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			state := NewState()
			if err := st.Persist(state); err != nil {
				return nil, err
			}
			return state, nil
		}
		return nil, err
	}
	plaintext, err := securestore.Decrypt(st.secret, raw)
	if err != nil {
		return nil, err
	}
	var persisted persistedState
	if err := json.Unmarshal(plaintext, &persisted); err != nil {
		return nil, err
	}
	return st.decode(persisted)
}

func (st *Store) Persist(state *State) error {
	if st.path == "" || st.secret == "" {
		return nil
	}
	payload, err := json.Marshal(encodeState(state))
	if err != nil {
		return err
	}
	encrypted, err := securestore.Encrypt(st.secret, payload)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(st.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(st.path, encrypted, 0o600)
}

// The persisted form renders the link relation as mirrored per-record
// views, matching the original wire shape. Load rebuilds the normalized
// relation from the union of both views and warns if they ever disagree.
type persistedState struct {
	Version    int                              `json:"version"`
	OriginData map[string]persistedOriginRecord `json:"origin_data"`
	AssetData  map[string]Asset                 `json:"asset_data,omitempty"`
	Statistics Statistics                       `json:"statistics"`
}

type persistedOriginRecord struct {
	Masks          []Mask   `json:"masks"`
	LinksFrom      []string `json:"links_from,omitempty"`
	LinksTo        []string `json:"links_to,omitempty"`
	CurrentSession *Session `json:"current_session,omitempty"`
}

func encodeState(state *State) persistedState {
	out := persistedState{
		Version:    stateVersion,
		OriginData: make(map[string]persistedOriginRecord, len(state.Origins)),
		Statistics: state.Statistics,
	}
	if len(state.Assets) > 0 {
		out.AssetData = make(map[string]Asset, len(state.Assets))
		for symbol, asset := range state.Assets {
			out.AssetData[symbol] = asset
		}
	}
	for origin, rec := range state.Origins {
		persisted := persistedOriginRecord{
			Masks:          append([]Mask(nil), rec.Masks...),
			LinksFrom:      state.Links.From(origin),
			LinksTo:        state.Links.To(origin),
			CurrentSession: rec.CurrentSession,
		}
		out.OriginData[origin] = persisted
	}
	// Origins that only appear as link endpoints still need their views
	// rendered somewhere; an edge endpoint always has a record because
	// linking touches both sides via MaskAt or lazy creation, but guard
	// against hand-edited payloads anyway.
	for from, targets := range state.Links {
		endpoints := append([]string{from}, sortedKeys(targets)...)
		for _, endpoint := range endpoints {
			if _, ok := out.OriginData[endpoint]; !ok {
				out.OriginData[endpoint] = persistedOriginRecord{
					LinksFrom: state.Links.From(endpoint),
					LinksTo:   state.Links.To(endpoint),
				}
			}
		}
	}
	return out
}

func (st *Store) decode(persisted persistedState) (*State, error) {
	if persisted.Version < 1 || persisted.Version > stateVersion {
		return nil, errors.New("wallet state payload has unsupported version")
	}
	state := NewState()
	state.Statistics = persisted.Statistics
	for symbol, asset := range persisted.AssetData {
		state.Assets[symbol] = asset
	}
	for origin, rec := range persisted.OriginData {
		state.Origins[origin] = &OriginRecord{
			Masks:          append([]Mask(nil), rec.Masks...),
			CurrentSession: rec.CurrentSession,
		}
	}
	for origin, rec := range persisted.OriginData {
		for _, to := range rec.LinksTo {
			if err := state.Links.Add(origin, to); err != nil && !errors.Is(err, ErrAlreadyLinked) {
				return nil, err
			}
		}
		for _, from := range rec.LinksFrom {
			if state.Links.Has(from, origin) {
				continue
			}
			st.log.Warn("wallet state link views disagree; repairing from union",
				"from_origin", from, "to_origin", origin)
			if err := state.Links.Add(from, origin); err != nil && !errors.Is(err, ErrAlreadyLinked) {
				return nil, err
			}
		}
	}
	if persisted.Version == 1 {
		// v1 payloads predate asset and statistics data; the zero values
		// are the correct migration.
		st.log.Info("migrated wallet state payload", "from_version", 1, "to_version", stateVersion)
	}
	return state, nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
