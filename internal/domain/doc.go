// Package domain models daily laying-flock records and their assessment
// against a breed performance standard.
//
// # Data Source
//
// Farm staff enter one record per flock per day on the dashboard. The
// dashboard backend joins the flock's placement date and current live
// population onto each record and publishes it as flat JSON to the Kafka
// source topic.
//
// # Units
//
//	egg_production       eggs collected that day (count)
//	egg_weight_kg        total mass of those eggs
//	feed_consumption_kg  feed delivered to the flock that day
//	average_body_weight_g  sample-weighed mean body weight
//
// # Flock Age
//
// Age in days is the whole-day difference between placement and record date.
// Age in weeks is days / 7, truncated, which is the week column of the
// breed guide. See [FlockAge].
//
// # Assessed Metrics
//
//	hen_day_percent   eggs / population × 100        vs egg production band
//	feed_intake_g     feed kg × 1000 / population    vs feed intake band
//	egg_weight_g      egg kg × 1000 / eggs           vs egg weight band
//	body_weight_g     average body weight            vs body weight band
//	fcr               feed kg / egg kg               vs derived FCR band
//
// A metric is reported only when its actual value can be computed and the
// standard carries a band for that week. Each metric is classified below,
// within or above the band.
//
// # ID Generation
//
// Assessment IDs are name-based UUIDs (version 5) of flock_id|record_date, so
// reprocessing the same record yields the same ID and downstream upserts stay
// idempotent. See [assessmentID].
package domain
