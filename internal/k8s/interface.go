package k8s

import "k8s.io/client-go/kubernetes"

// Interface defines the contract for Kubernetes client operations
// This interface allows for easy mocking in tests
type Interface interface {
	// Clientset returns the underlying Kubernetes clientset
	// Used to read configuration from ConfigMaps and Secrets
	Clientset() kubernetes.Interface

	// PortForwardService forwards a local port to a pod backing the service
	PortForwardService(namespace, serviceName string, localPort, remotePort int) (*Forward, error)
}

// Ensure *Client implements Interface
var _ Interface = (*Client)(nil)
