package source

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
	metricsv "k8s.io/metrics/pkg/client/clientset/versioned"

	"github.com/cloudspend/multicloud-cost-advisor/pkg/models"
)

const instanceTypeLabel = "node.kubernetes.io/instance-type"

// KubernetesSource treats cluster nodes as compute resources: the shape is
// the node instance type, the provider is detected from the node providerID,
// and utilization comes from metrics-server. Each Fetch yields one instant
// sample per node and metric; the daemon accumulates them across polls.
type KubernetesSource struct {
	clientset     kubernetes.Interface
	metricsClient metricsv.Interface
}

// NewKubernetesSource builds a source from the local kubeconfig.
func NewKubernetesSource() (*KubernetesSource, error) {
	var kubeconfig string
	if home := homedir.HomeDir(); home != "" {
		kubeconfig = filepath.Join(home, ".kube", "config")
	}

	config, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build kube config: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}

	metricsClient, err := metricsv.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics client: %w", err)
	}

	return &KubernetesSource{clientset: clientset, metricsClient: metricsClient}, nil
}

func (k *KubernetesSource) Name() string {
	return "kubernetes"
}

func (k *KubernetesSource) IsAvailable(ctx context.Context) bool {
	_, err := k.clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{Limit: 1})
	return err == nil
}

func (k *KubernetesSource) ListResources(ctx context.Context) ([]models.ResourceInfo, error) {
	nodes, err := k.clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list nodes: %v", ErrSourceUnavailable, err)
	}

	infos := make([]models.ResourceInfo, 0, len(nodes.Items))
	for _, node := range nodes.Items {
		infos = append(infos, models.ResourceInfo{
			ID:       node.Name,
			Provider: providerFromNode(node),
			Type:     models.ResourceCompute,
			Shape:    node.Labels[instanceTypeLabel],
			Region:   node.Labels[corev1.LabelTopologyRegion],
			Tags:     node.Labels,
		})
	}
	return infos, nil
}

func (k *KubernetesSource) Fetch(ctx context.Context, ids []string, window models.Window) ([]models.ResourceSample, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("kubernetes: resource id set must be non-empty")
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	nodes, err := k.clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list nodes: %v", ErrSourceUnavailable, err)
	}

	nodeMetrics, err := k.metricsClient.MetricsV1beta1().NodeMetricses().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get node metrics: %v", ErrSourceUnavailable, err)
	}

	usage := make(map[string]corev1.ResourceList, len(nodeMetrics.Items))
	for _, nm := range nodeMetrics.Items {
		usage[nm.Name] = nm.Usage
	}

	now := time.Now()
	var out []models.ResourceSample
	for _, node := range nodes.Items {
		if !wanted[node.Name] {
			continue
		}
		used, ok := usage[node.Name]
		if !ok {
			continue
		}

		provider := providerFromNode(node)

		allocCPU := node.Status.Allocatable[corev1.ResourceCPU]
		usedCPU := used[corev1.ResourceCPU]
		if allocCPU.MilliValue() > 0 {
			out = append(out, models.ResourceSample{
				ResourceID:   node.Name,
				Provider:     provider,
				ResourceType: models.ResourceCompute,
				Timestamp:    now,
				Metric:       models.MetricCPUPct,
				Value:        float64(usedCPU.MilliValue()) / float64(allocCPU.MilliValue()) * 100,
			})
		}

		allocMem := node.Status.Allocatable[corev1.ResourceMemory]
		usedMem := used[corev1.ResourceMemory]
		if allocMem.Value() > 0 {
			out = append(out, models.ResourceSample{
				ResourceID:   node.Name,
				Provider:     provider,
				ResourceType: models.ResourceCompute,
				Timestamp:    now,
				Metric:       models.MetricMemoryPct,
				Value:        float64(usedMem.Value()) / float64(allocMem.Value()) * 100,
			})
		}
	}

	if missing := MissingFrom(ids, out); len(missing) > 0 {
		return out, NewPartialDataError(k.Name(), missing)
	}
	return out, nil
}

// providerFromNode maps the node providerID scheme onto a cloud platform.
func providerFromNode(node corev1.Node) models.Provider {
	id := node.Spec.ProviderID
	switch {
	case strings.HasPrefix(id, "aws://"):
		return models.ProviderAWS
	case strings.HasPrefix(id, "azure://"):
		return models.ProviderAzure
	case strings.HasPrefix(id, "gce://"):
		return models.ProviderGCP
	case strings.HasPrefix(id, "digitalocean://"):
		return models.ProviderDigitalOcean
	default:
		return models.ProviderDefault
	}
}
