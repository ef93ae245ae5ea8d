package config

type WorkerKeyStruct struct {
	TaskLogQueue string
}

var WorkerKey = &WorkerKeyStruct{
	TaskLogQueue: "ai_task_log_queue",
}
