package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DiscountRejections counts rejected discount codes by reason.
	DiscountRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_discount_rejections_total",
			Help: "Discount codes rejected, by reason",
		},
		[]string{"reason"},
	)

	// DiscountsApplied counts codes that validated successfully.
	DiscountsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_discounts_applied_total",
		Help: "Discount codes applied to a cart",
	})

	// ShippingResolutions counts fee resolutions by tier.
	ShippingResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_shipping_resolutions_total",
			Help: "Shipping fee resolutions, by matching tier",
		},
		[]string{"tier"},
	)

	// ShippingTableRefreshes counts fee table loads by source and outcome.
	ShippingTableRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_shipping_table_refreshes_total",
			Help: "Shipping fee table loads, by source and result",
		},
		[]string{"source", "result"},
	)

	// DraftsAssembled counts order drafts produced.
	DraftsAssembled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_drafts_assembled_total",
		Help: "Order drafts assembled",
	})

	// TotalsClamped counts drafts whose total would have been negative.
	TotalsClamped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_totals_clamped_total",
		Help: "Draft totals clamped to zero",
	})

	// StaleResults counts lookup results dropped because a newer cart or
	// address change superseded them.
	StaleResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_stale_results_total",
			Help: "Lookup results discarded as stale, by lookup",
		},
		[]string{"lookup"},
	)

	// CartMutations counts committed cart mutations by operation.
	CartMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "Committed cart mutations, by operation",
		},
		[]string{"op"},
	)
)
