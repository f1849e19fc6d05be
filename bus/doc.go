// Package bus routes unsolicited UPB reports to subscribers.
//
// A Router implements pim.Listener. Reports that set the link bit are routed
// by network and link ID (the destination); all other reports are routed by
// network and the reporting unit (the source). Reports without a subscriber
// go to the fallback handler, if any.
//
//	router := bus.NewRouter(logger.GetLogger())
//	unsubscribe := router.SubscribeDevice(bus.DeviceKey{NetworkID: 2, UnitID: 5}, func(msg *upb.Message) {
//		...
//	})
//	defer unsubscribe()
//
//	engine, err := pim.NewEngine(ctx, transport, router, cfg)
package bus
