// Package discovery implements mDNS/DNS-SD discovery of brokers on the
// local network, browsing the registered "_amqp._tcp" service type.
//
// Broker discovery is a convenience for tooling and zero-configuration
// setups; production clients usually connect to a configured URI
// instead. Browse results are aggregated by instance name, so a broker
// visible on several interfaces appears once with all its addresses.
//
// Example:
//
//	browser, _ := discovery.NewBrowser(discovery.DefaultBrowserConfig())
//	svc, err := browser.FindFirst(ctx, 5*time.Second)
//	if err == nil {
//	    fmt.Println(svc.Endpoint())
//	}
package discovery
