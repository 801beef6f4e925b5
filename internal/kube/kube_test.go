package kube

import (
	"context"
	"errors"
	"testing"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"easynetes/internal/config"
)

func int32Ptr(v int32) *int32 { return &v }

func podSpec(image string) corev1.PodTemplateSpec {
	return corev1.PodTemplateSpec{Spec: corev1.PodSpec{Containers: []corev1.Container{{Name: "main", Image: image}}}}
}

func newFakeCluster() Cluster {
	client := fake.NewSimpleClientset(
		&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "prod"}, Status: corev1.NamespaceStatus{Phase: corev1.NamespaceActive}},
		&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "dev", Labels: map[string]string{"team": "infra"}}},
		&appsv1.Deployment{
			ObjectMeta: metav1.ObjectMeta{Name: "api", Namespace: "prod"},
			Spec:       appsv1.DeploymentSpec{Replicas: int32Ptr(3), Template: podSpec("registry.local/api:1.2")},
			Status:     appsv1.DeploymentStatus{ReadyReplicas: 2},
		},
		&appsv1.StatefulSet{
			ObjectMeta: metav1.ObjectMeta{Name: "mysql", Namespace: "prod"},
			Spec:       appsv1.StatefulSetSpec{Template: podSpec("mysql:8.0")},
			Status:     appsv1.StatefulSetStatus{ReadyReplicas: 1},
		},
		&appsv1.DaemonSet{
			ObjectMeta: metav1.ObjectMeta{Name: "node-exporter", Namespace: "monitoring"},
			Spec:       appsv1.DaemonSetSpec{Template: podSpec("prom/node-exporter")},
			Status:     appsv1.DaemonSetStatus{DesiredNumberScheduled: 4, NumberReady: 4},
		},
	)
	return NewCluster("dev-cluster", "kind-dev", "https://127.0.0.1:6443", client)
}

func TestListNamespacesSorted(t *testing.T) {
	ns, err := newFakeCluster().ListNamespaces(context.Background())
	if err != nil {
		t.Fatalf("list namespaces: %v", err)
	}
	if len(ns) != 2 || ns[0].Name != "dev" || ns[1].Name != "prod" {
		t.Fatalf("unexpected namespaces %+v", ns)
	}
	if ns[0].Status != "Active" || ns[0].Labels["team"] != "infra" {
		t.Fatalf("unexpected dev namespace %+v", ns[0])
	}
}

func TestListWorkloadsAllNamespaces(t *testing.T) {
	wl, err := newFakeCluster().ListWorkloads(context.Background(), "")
	if err != nil {
		t.Fatalf("list workloads: %v", err)
	}
	if len(wl) != 3 {
		t.Fatalf("expected 3 workloads, got %+v", wl)
	}
	if wl[0].Kind != KindDaemonSet || wl[0].Namespace != "monitoring" || wl[0].Replicas != 4 {
		t.Fatalf("unexpected first workload %+v", wl[0])
	}
	if wl[1].Kind != KindDeployment || wl[1].Replicas != 3 || wl[1].ReadyReplicas != 2 || wl[1].Images[0] != "registry.local/api:1.2" {
		t.Fatalf("unexpected deployment %+v", wl[1])
	}
	if wl[2].Kind != KindStatefulSet || wl[2].Replicas != 1 {
		t.Fatalf("statefulset without replicas should default to 1, got %+v", wl[2])
	}
}

func TestListWorkloadsSingleNamespace(t *testing.T) {
	wl, err := newFakeCluster().ListWorkloads(context.Background(), "monitoring")
	if err != nil {
		t.Fatalf("list workloads: %v", err)
	}
	if len(wl) != 1 || wl[0].Name != "node-exporter" {
		t.Fatalf("unexpected workloads %+v", wl)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(0)
	if r.Timeout() != defaultTimeout {
		t.Fatalf("expected default timeout, got %v", r.Timeout())
	}
	if err := r.Add(newFakeCluster()); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := r.Add(newFakeCluster()); err == nil {
		t.Fatalf("expected duplicate cluster error")
	}
	if _, err := r.Get("missing"); !errors.Is(err, ErrUnknownCluster) {
		t.Fatalf("expected ErrUnknownCluster, got %v", err)
	}
	list := r.List()
	if len(list) != 1 || list[0].Name != "dev-cluster" || list[0].Server != "https://127.0.0.1:6443" {
		t.Fatalf("unexpected cluster list %+v", list)
	}
}

func TestFromConfigMissingKubeconfig(t *testing.T) {
	_, err := FromConfig(config.Kubernetes{
		Timeout:  time.Second,
		Clusters: []config.Cluster{{Name: "broken", Kubeconfig: "/nonexistent/kubeconfig"}},
	})
	if err == nil {
		t.Fatalf("expected error for unreadable kubeconfig")
	}
}

func TestFromConfigEmpty(t *testing.T) {
	r, err := FromConfig(config.Kubernetes{})
	if err != nil {
		t.Fatalf("empty config: %v", err)
	}
	if len(r.List()) != 0 {
		t.Fatalf("expected no clusters")
	}
}
