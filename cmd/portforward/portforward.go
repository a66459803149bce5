package portforward

import (
	"fmt"

	"github.com/stackvista/snapshot-reconciler/internal/k8s"
	"github.com/stackvista/snapshot-reconciler/internal/logger"
)

// Conn contains the channels needed to manage a port-forward connection
type Conn struct {
	StopChan  chan struct{}
	ReadyChan <-chan struct{}
	LocalPort int
}

// Close stops the port-forward
func (c *Conn) Close() {
	close(c.StopChan)
}

// SetupPortForward establishes a port-forward to a Kubernetes service and waits for it to be ready.
// It returns a Conn containing the stop and ready channels, plus the local port.
// The caller is responsible for closing the Conn when done.
func SetupPortForward(
	k8sClient k8s.Interface,
	namespace string,
	serviceName string,
	localPort int,
	remotePort int,
	log *logger.Logger,
) (*Conn, error) {
	log.Infof("Setting up port-forward to %s:%d in namespace %s...", serviceName, remotePort, namespace)

	forward, err := k8sClient.PortForwardService(namespace, serviceName, localPort, remotePort)
	if err != nil {
		return nil, fmt.Errorf("failed to setup port-forward: %w", err)
	}

	select {
	case <-forward.Ready:
	case err, ok := <-forward.Errs:
		if !ok || err == nil {
			err = fmt.Errorf("port-forward to %s closed before it was ready", serviceName)
		}
		return nil, fmt.Errorf("failed to setup port-forward: %w", err)
	}

	log.Successf("Port-forward established successfully")

	return &Conn{
		StopChan:  forward.Stop,
		ReadyChan: forward.Ready,
		LocalPort: localPort,
	}, nil
}
