// Package k8s provides the Kubernetes access the reconciler needs: reading
// configuration from the cluster and port-forwarding to the search service.
package k8s

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/tools/portforward"
	"k8s.io/client-go/transport/spdy"
)

// Client wraps the Kubernetes clientset
type Client struct {
	clientset  kubernetes.Interface
	restConfig *rest.Config
	debug      bool
}

// Clientset returns the underlying Kubernetes clientset
func (c *Client) Clientset() kubernetes.Interface {
	return c.clientset
}

// NewTestClient wraps an existing clientset, typically a fake one.
// Port-forwarding to a pod is not available on such a client.
func NewTestClient(clientset kubernetes.Interface) *Client {
	return &Client{
		clientset:  clientset,
		restConfig: &rest.Config{},
	}
}

// NewClient creates a new Kubernetes client
func NewClient(kubeconfigPath string, debug bool) (*Client, error) {
	if kubeconfigPath == "" {
		// Use default kubeconfig location
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		kubeconfigPath = filepath.Join(home, ".kube", "config")
	}

	config, err := clientcmd.BuildConfigFromFlags("", kubeconfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to build config: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}

	return &Client{
		clientset:  clientset,
		restConfig: config,
		debug:      debug,
	}, nil
}

// Forward is a port-forward to a pod. Ready is closed once the local port
// accepts connections; Errs receives the error that ended forwarding early.
// Closing Stop tears the forward down.
type Forward struct {
	Stop  chan struct{}
	Ready <-chan struct{}
	Errs  <-chan error
}

// PortForwardService creates a port-forward to a running pod backing a Kubernetes service
func (c *Client) PortForwardService(namespace, serviceName string, localPort, remotePort int) (*Forward, error) {
	ctx := context.Background()

	svc, err := c.clientset.CoreV1().Services(namespace).Get(ctx, serviceName, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}

	podList, err := c.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: metav1.FormatLabelSelector(&metav1.LabelSelector{
			MatchLabels: svc.Spec.Selector,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods: %w", err)
	}

	if len(podList.Items) == 0 {
		return nil, fmt.Errorf("no pods found for service %s", serviceName)
	}

	targetPod := firstRunningPod(podList.Items)
	if targetPod == nil {
		return nil, fmt.Errorf("no running pods found for service %s", serviceName)
	}
	return c.PortForwardPod(namespace, targetPod.Name, localPort, remotePort)
}

func firstRunningPod(pods []corev1.Pod) *corev1.Pod {
	for i := range pods {
		if pods[i].Status.Phase == corev1.PodRunning {
			return &pods[i]
		}
	}
	return nil
}

// PortForwardPod creates a port-forward to a specific pod
func (c *Client) PortForwardPod(namespace, podName string, localPort, remotePort int) (*Forward, error) {
	if c.restConfig == nil || c.restConfig.Host == "" {
		return nil, fmt.Errorf("port-forward to pod %s requires a cluster connection", podName)
	}

	u, err := url.Parse(c.restConfig.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to parse host: %w", err)
	}
	u.Path = fmt.Sprintf("/api/v1/namespaces/%s/pods/%s/portforward", namespace, podName)

	transport, upgrader, err := spdy.RoundTripperFor(c.restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create round tripper: %w", err)
	}

	dialer := spdy.NewDialer(upgrader, &http.Client{Transport: transport}, http.MethodPost, u)

	stopChan := make(chan struct{}, 1)
	readyChan := make(chan struct{})
	errChan := make(chan error, 1)

	ports := []string{fmt.Sprintf("%d:%d", localPort, remotePort)}

	// Use discard writers if debug is disabled to suppress port-forward output
	outWriter := io.Discard
	errWriter := io.Discard
	if c.debug {
		outWriter = os.Stdout
		errWriter = os.Stderr
	}

	fw, err := portforward.New(dialer, ports, stopChan, readyChan, outWriter, errWriter)
	if err != nil {
		return nil, fmt.Errorf("failed to create port forwarder: %w", err)
	}

	go func() {
		if err := fw.ForwardPorts(); err != nil {
			errChan <- fmt.Errorf("port-forward to pod %s failed: %w", podName, err)
		}
		close(errChan)
	}()

	return &Forward{
		Stop:  stopChan,
		Ready: readyChan,
		Errs:  errChan,
	}, nil
}
