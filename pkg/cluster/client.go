// Package cluster spreads knee location across remote kneedle agents.
package cluster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/runningwild/kneedle/pkg/agent"
	"github.com/runningwild/kneedle/pkg/knee"
)

const defaultTimeout = 30 * time.Second

type Client struct {
	nodes    []string
	parallel int
	http     *http.Client
}

// New returns a client for the given agents. Nodes are host:port or full
// URLs. parallel bounds the number of requests in flight; values below 1
// mean one per node.
func New(nodes []string, parallel int) *Client {
	if parallel < 1 {
		parallel = len(nodes)
	}
	return &Client{
		nodes:    nodes,
		parallel: parallel,
		http:     &http.Client{Timeout: defaultTimeout},
	}
}

// Locate sends request i to node i mod len(nodes) and returns the results in
// request order. The first failure cancels the rest.
func (c *Client) Locate(ctx context.Context, reqs []agent.LocateRequest) ([]knee.Result, error) {
	if len(c.nodes) == 0 {
		return nil, fmt.Errorf("no agent nodes configured")
	}
	results := make([]knee.Result, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallel)
	for i := range reqs {
		node := c.nodes[i%len(c.nodes)]
		g.Go(func() error {
			res, err := c.locateRemote(ctx, node, reqs[i])
			if err != nil {
				return fmt.Errorf("node %s failed on curve %d: %w", node, i, err)
			}
			results[i] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"curves": len(reqs),
		"nodes":  len(c.nodes),
	}).Debug("Remote locate finished")
	return results, nil
}

func (c *Client) locateRemote(ctx context.Context, host string, lr agent.LocateRequest) (*knee.Result, error) {
	data, err := json.Marshal(lr)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint(host, "/locate"), bytes.NewBuffer(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("agent %s error (%s): %s", host, resp.Status, string(bytes.TrimSpace(body)))
	}

	var res knee.Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, err
	}
	return &res, nil
}

func endpoint(host, path string) string {
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return strings.TrimSuffix(host, "/") + path
	}
	return "http://" + host + path
}
