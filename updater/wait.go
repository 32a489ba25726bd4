package updater

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// WaitForService polls url until the service answers or the budget runs
// out. Any HTTP response, even an error status, means the service is up.
func WaitForService(url string, timeout time.Duration) bool {
	client := &http.Client{Timeout: 2 * time.Second}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			resp.Body.Close()
			log.WithField("url", url).Debug("service is up")
			return true
		}
		log.WithError(err).WithField("url", url).Debug("service not ready yet")
		time.Sleep(time.Second)
	}

	return false
}
