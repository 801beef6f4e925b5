// Package kube reads namespaces and workloads from the Kubernetes clusters
// configured for the console.
package kube

import (
	"context"
	"fmt"
	"sort"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"easynetes/internal/models"
)

const (
	KindDeployment  = "Deployment"
	KindStatefulSet = "StatefulSet"
	KindDaemonSet   = "DaemonSet"
)

type Namespace struct {
	Name        string            `json:"name"`
	Status      string            `json:"status"`
	Labels      map[string]string `json:"labels,omitempty"`
	CreatedTime models.Timestamp  `json:"createdTime"`
}

type Workload struct {
	Kind          string           `json:"kind"`
	Name          string           `json:"name"`
	Namespace     string           `json:"namespace"`
	Replicas      int32            `json:"replicas"`
	ReadyReplicas int32            `json:"readyReplicas"`
	Images        []string         `json:"images"`
	CreatedTime   models.Timestamp `json:"createdTime"`
}

// Cluster is a read-only view of one Kubernetes cluster.
type Cluster interface {
	Name() string
	Context() string
	Server() string
	Version(ctx context.Context) (string, error)
	ListNamespaces(ctx context.Context) ([]Namespace, error)
	// ListWorkloads lists deployments, statefulsets and daemonsets. An empty
	// namespace means all namespaces.
	ListWorkloads(ctx context.Context, namespace string) ([]Workload, error)
}

type cluster struct {
	name    string
	context string
	server  string
	client  kubernetes.Interface
}

var _ Cluster = &cluster{}

// NewCluster wraps a clientset. Tests pass a fake clientset here.
func NewCluster(name, kubeContext, server string, client kubernetes.Interface) Cluster {
	return &cluster{name: name, context: kubeContext, server: server, client: client}
}

func (c *cluster) Name() string    { return c.name }
func (c *cluster) Context() string { return c.context }
func (c *cluster) Server() string  { return c.server }

func (c *cluster) Version(ctx context.Context) (string, error) {
	info, err := c.client.Discovery().ServerVersion()
	if err != nil {
		return "", fmt.Errorf("cluster %s: server version: %w", c.name, err)
	}
	return info.GitVersion, nil
}

func (c *cluster) ListNamespaces(ctx context.Context) ([]Namespace, error) {
	list, err := c.client.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("cluster %s: list namespaces: %w", c.name, err)
	}
	out := make([]Namespace, 0, len(list.Items))
	for _, ns := range list.Items {
		out = append(out, namespaceFrom(&ns))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func namespaceFrom(ns *corev1.Namespace) Namespace {
	status := string(ns.Status.Phase)
	if status == "" {
		status = string(corev1.NamespaceActive)
	}
	return Namespace{
		Name:        ns.Name,
		Status:      status,
		Labels:      ns.Labels,
		CreatedTime: models.NewTimestamp(ns.CreationTimestamp.Time),
	}
}

func (c *cluster) ListWorkloads(ctx context.Context, namespace string) ([]Workload, error) {
	opts := metav1.ListOptions{}
	apps := c.client.AppsV1()

	deployments, err := apps.Deployments(namespace).List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("cluster %s: list deployments: %w", c.name, err)
	}
	statefulSets, err := apps.StatefulSets(namespace).List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("cluster %s: list statefulsets: %w", c.name, err)
	}
	daemonSets, err := apps.DaemonSets(namespace).List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("cluster %s: list daemonsets: %w", c.name, err)
	}

	out := make([]Workload, 0, len(deployments.Items)+len(statefulSets.Items)+len(daemonSets.Items))
	for i := range deployments.Items {
		out = append(out, deploymentWorkload(&deployments.Items[i]))
	}
	for i := range statefulSets.Items {
		out = append(out, statefulSetWorkload(&statefulSets.Items[i]))
	}
	for i := range daemonSets.Items {
		out = append(out, daemonSetWorkload(&daemonSets.Items[i]))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Namespace != out[j].Namespace {
			return out[i].Namespace < out[j].Namespace
		}
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func images(spec corev1.PodSpec) []string {
	out := make([]string, 0, len(spec.Containers))
	for _, c := range spec.Containers {
		out = append(out, c.Image)
	}
	return out
}

func replicasOrOne(r *int32) int32 {
	if r == nil {
		return 1
	}
	return *r
}

func deploymentWorkload(d *appsv1.Deployment) Workload {
	return Workload{
		Kind:          KindDeployment,
		Name:          d.Name,
		Namespace:     d.Namespace,
		Replicas:      replicasOrOne(d.Spec.Replicas),
		ReadyReplicas: d.Status.ReadyReplicas,
		Images:        images(d.Spec.Template.Spec),
		CreatedTime:   models.NewTimestamp(d.CreationTimestamp.Time),
	}
}

func statefulSetWorkload(s *appsv1.StatefulSet) Workload {
	return Workload{
		Kind:          KindStatefulSet,
		Name:          s.Name,
		Namespace:     s.Namespace,
		Replicas:      replicasOrOne(s.Spec.Replicas),
		ReadyReplicas: s.Status.ReadyReplicas,
		Images:        images(s.Spec.Template.Spec),
		CreatedTime:   models.NewTimestamp(s.CreationTimestamp.Time),
	}
}

func daemonSetWorkload(d *appsv1.DaemonSet) Workload {
	return Workload{
		Kind:          KindDaemonSet,
		Name:          d.Name,
		Namespace:     d.Namespace,
		Replicas:      d.Status.DesiredNumberScheduled,
		ReadyReplicas: d.Status.NumberReady,
		Images:        images(d.Spec.Template.Spec),
		CreatedTime:   models.NewTimestamp(d.CreationTimestamp.Time),
	}
}
