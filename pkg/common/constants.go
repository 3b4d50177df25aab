package common

const (
	RedisStreamAnalysisCompleted = "stock.analysis.completed"

	RedisKeyLatestAnalysis = "stock_analysis:latest:%s"
)
