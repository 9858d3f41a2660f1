package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Remote drives a live editor session through its automation bridge, a
// small HTTP service the editor-side plugin exposes while the editor is
// open. One bridge serves one editor session.
type Remote struct {
	base   string
	client *http.Client
}

func NewRemote(baseURL string) *Remote {
	return &Remote{
		base: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			// Imports and FBX exports can take a while on large scenes.
			Timeout: 5 * time.Minute,
		},
	}
}

func (r *Remote) get(ctx context.Context, path string, query url.Values, out any) error {
	u := r.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return r.do(req, out)
}

func (r *Remote) post(ctx context.Context, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.base+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return r.do(req, out)
}

func (r *Remote) do(req *http.Request, out any) error {
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("editor bridge: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("editor bridge %s %s: %s: %s",
			req.Method, req.URL.Path, resp.Status, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (r *Remote) SplineActors(ctx context.Context, marker string) ([]SplineActor, error) {
	var actors []SplineActor
	q := url.Values{"marker": {marker}}
	if err := r.get(ctx, "/level/splines", q, &actors); err != nil {
		return nil, err
	}
	return actors, nil
}

func (r *Remote) MeshActors(ctx context.Context, marker string) ([]MeshActor, error) {
	var actors []MeshActor
	q := url.Values{"marker": {marker}}
	if err := r.get(ctx, "/level/meshes", q, &actors); err != nil {
		return nil, err
	}
	return actors, nil
}

func (r *Remote) ExportMeshesFBX(ctx context.Context, meshNames []string, destPath string) error {
	body := map[string]any{"mesh_names": meshNames, "dest_path": destPath}
	return r.post(ctx, "/export/fbx", body, nil)
}

func (r *Remote) AssetExists(ctx context.Context, assetPath string) (bool, error) {
	var out struct {
		Exists bool `json:"exists"`
	}
	q := url.Values{"path": {assetPath}}
	if err := r.get(ctx, "/assets/exists", q, &out); err != nil {
		return false, err
	}
	return out.Exists, nil
}

func (r *Remote) ListAssets(ctx context.Context, folder string) ([]string, error) {
	var assets []string
	q := url.Values{"folder": {folder}}
	if err := r.get(ctx, "/assets/list", q, &assets); err != nil {
		return nil, err
	}
	return assets, nil
}

func (r *Remote) DuplicateAsset(ctx context.Context, srcPath, destFolder, newName string) (string, error) {
	body := map[string]string{
		"src_path":    srcPath,
		"dest_folder": destFolder,
		"new_name":    newName,
	}
	var out struct {
		AssetPath string `json:"asset_path"`
	}
	if err := r.post(ctx, "/assets/duplicate", body, &out); err != nil {
		return "", err
	}
	return out.AssetPath, nil
}

func (r *Remote) SpawnAsset(ctx context.Context, assetPath, label, levelFolder string) error {
	body := map[string]string{
		"asset_path":   assetPath,
		"label":        label,
		"level_folder": levelFolder,
	}
	return r.post(ctx, "/assets/spawn", body, nil)
}

func (r *Remote) ReimportAsset(ctx context.Context, assetPath string) error {
	return r.post(ctx, "/import/reimport", map[string]string{"asset_path": assetPath}, nil)
}

func (r *Remote) RunImportTask(ctx context.Context, task ImportTask) error {
	return r.post(ctx, "/import/task", task, nil)
}

func (r *Remote) ImportAsset(ctx context.Context, sourceFile, destPath string) error {
	body := map[string]string{"source_file": sourceFile, "dest_path": destPath}
	return r.post(ctx, "/import/direct", body, nil)
}

var _ Session = (*Remote)(nil)
