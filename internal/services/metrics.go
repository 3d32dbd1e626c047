package services

import "github.com/prometheus/client_golang/prometheus"

// Vote outcomes recorded by votesTotal.
const (
	voteOutcomeNew    = "new"
	voteOutcomeFlip   = "flip"
	voteOutcomeRepeat = "repeat"
)

var (
	votesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "votes_total",
			Help: "Vote requests applied, by target kind and state transition.",
		},
		[]string{"target", "outcome"},
	)

	postsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "posts_created_total",
		Help: "Posts created.",
	})

	commentsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "comments_created_total",
		Help: "Comments created.",
	})
)

func init() {
	prometheus.MustRegister(votesTotal, postsCreated, commentsCreated)
}
