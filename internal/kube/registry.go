package kube

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"easynetes/internal/config"
)

// ErrUnknownCluster is returned for cluster names that are not configured.
var ErrUnknownCluster = errors.New("unknown cluster")

const defaultTimeout = 15 * time.Second

// ClusterInfo describes a configured cluster.
type ClusterInfo struct {
	Name    string `json:"name"`
	Context string `json:"context,omitempty"`
	Server  string `json:"server,omitempty"`
}

// Registry holds the configured clusters in declaration order.
type Registry struct {
	mu       sync.RWMutex
	clusters map[string]Cluster
	order    []string
	timeout  time.Duration
}

func NewRegistry(timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Registry{clusters: make(map[string]Cluster), timeout: timeout}
}

// FromConfig builds clientsets for every configured cluster.
func FromConfig(cfg config.Kubernetes) (*Registry, error) {
	r := NewRegistry(cfg.Timeout)
	for _, cl := range cfg.Clusters {
		restCfg, err := restConfig(cl.Kubeconfig, cl.Context)
		if err != nil {
			return nil, fmt.Errorf("cluster %s: %w", cl.Name, err)
		}
		restCfg.Timeout = r.timeout
		clientset, err := kubernetes.NewForConfig(restCfg)
		if err != nil {
			return nil, fmt.Errorf("cluster %s: %w", cl.Name, err)
		}
		if err := r.Add(NewCluster(cl.Name, cl.Context, restCfg.Host, clientset)); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// restConfig prefers an explicit kubeconfig/context. With neither set it
// tries the in-cluster service account, then the default loading rules.
func restConfig(kubeconfig, kubeContext string) (*rest.Config, error) {
	if kubeconfig == "" && kubeContext == "" {
		if cfg, err := rest.InClusterConfig(); err == nil {
			return cfg, nil
		}
	}
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfig != "" {
		rules.ExplicitPath = kubeconfig
	}
	return clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		rules,
		&clientcmd.ConfigOverrides{CurrentContext: kubeContext},
	).ClientConfig()
}

// Add registers a cluster; names must be unique.
func (r *Registry) Add(c Cluster) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.clusters[c.Name()]; exists {
		return fmt.Errorf("duplicate cluster %q", c.Name())
	}
	r.clusters[c.Name()] = c
	r.order = append(r.order, c.Name())
	return nil
}

func (r *Registry) Get(name string) (Cluster, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clusters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCluster, name)
	}
	return c, nil
}

func (r *Registry) List() []ClusterInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ClusterInfo, 0, len(r.order))
	for _, name := range r.order {
		c := r.clusters[name]
		out = append(out, ClusterInfo{Name: c.Name(), Context: c.Context(), Server: c.Server()})
	}
	return out
}

// Timeout bounds each request made against a cluster.
func (r *Registry) Timeout() time.Duration {
	return r.timeout
}
