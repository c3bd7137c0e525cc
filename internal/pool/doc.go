// Package pool provides a fixed-size worker pool for controlled concurrency.
//
// CartoonPrint 的生成流水线（尤其是光线投射预览）是 CPU 密集型的，
// HTTP 层通过 Pool 把同时运行的生成任务限制在 pipeline.max_concurrent 以内，
// 其余请求排队等待或随请求取消而放弃。
package pool
