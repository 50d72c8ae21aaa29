package worker

import (
	"fmt"
	"log"
	"time"
	"tour_verify/internal/pkg/push"
)

// 通知类型
const (
	TaskCourseCompleted = "course_completed"
	TaskRewardApproved  = "reward_approved"
)

type NotificationTask struct {
	Kind      string
	TouristID string
	CourseID  string
	ClaimID   string
	Amount    int64
	Retry     int // 重试次数
}

// NotificationPool 异步通知工作池
// 推送失败进入重试队列，超过最大重试次数后丢弃并记录
type NotificationPool struct {
	TaskQueue  chan NotificationTask
	RetryQueue chan NotificationTask // 重试队列
	WorkerNum  int
	MaxRetry   int // 最大重试次数
}

func NewNotificationPool(workerNum int, bufferSize int) *NotificationPool {
	return &NotificationPool{
		TaskQueue:  make(chan NotificationTask, bufferSize),
		RetryQueue: make(chan NotificationTask, bufferSize/2),
		WorkerNum:  workerNum,
		MaxRetry:   3, // 最多重试3次
	}
}

func (p *NotificationPool) Start() {
	for i := 0; i < p.WorkerNum; i++ {
		go p.worker(i)
	}
	// 启动重试处理协程
	go p.retryWorker()
	log.Printf("Notification pool started with %d workers", p.WorkerNum)
}

func (p *NotificationPool) worker(id int) {
	for task := range p.TaskQueue {
		if err := p.processTask(task); err != nil {
			log.Printf("[Worker %d] Failed to push notification (TouristID: %s, Kind: %s): %v",
				id, task.TouristID, task.Kind, err)

			// 如果未达到最大重试次数，加入重试队列
			if task.Retry < p.MaxRetry {
				task.Retry++
				select {
				case p.RetryQueue <- task:
					log.Printf("[Worker %d] Task added to retry queue (attempt %d/%d)",
						id, task.Retry, p.MaxRetry)
				default:
					log.Printf("[Worker %d] Retry queue full, task dropped: %+v", id, task)
					p.logFailedTask(task, err)
				}
			} else {
				log.Printf("[Worker %d] Task exceeded max retries, dropped: %+v", id, task)
				p.logFailedTask(task, err)
			}
		}
	}
}

func (p *NotificationPool) retryWorker() {
	for task := range p.RetryQueue {
		// 延迟重试，避免立即重试
		time.Sleep(time.Duration(task.Retry) * time.Second)

		select {
		case p.TaskQueue <- task:
			log.Printf("[RetryWorker] Task re-queued (attempt %d/%d)", task.Retry, p.MaxRetry)
		default:
			log.Printf("[RetryWorker] Main queue full, task dropped: %+v", task)
			p.logFailedTask(task, nil)
		}
	}
}

func (p *NotificationPool) processTask(task NotificationTask) error {
	if push.GlobalPushService == nil {
		// 未配置推送服务，静默丢弃
		return nil
	}

	switch task.Kind {
	case TaskCourseCompleted:
		return push.GlobalPushService.PushToAccount(
			task.TouristID,
			"Course completed",
			"You have verified every attraction on your course. Claim your reward now!",
			map[string]string{"course_id": task.CourseID},
		)
	case TaskRewardApproved:
		return push.GlobalPushService.PushToAccount(
			task.TouristID,
			"Reward approved",
			fmt.Sprintf("Your reward of %d has been approved.", task.Amount),
			map[string]string{"claim_id": task.ClaimID},
		)
	default:
		log.Printf("Unknown notification kind: %s", task.Kind)
		return nil
	}
}

func (p *NotificationPool) logFailedTask(task NotificationTask, err error) {
	log.Printf("[DeadLetter] Notification failed permanently: TouristID=%s, Kind=%s, Error=%v",
		task.TouristID, task.Kind, err)
}

func (p *NotificationPool) AddTask(task NotificationTask) {
	select {
	case p.TaskQueue <- task:
		// 任务入队成功
	default:
		log.Printf("Notification queue full, dropping task: %+v", task)
		p.logFailedTask(task, nil)
	}
}

// NotifyCompletion 课程完成通知入队
func (p *NotificationPool) NotifyCompletion(touristID, courseID string) {
	p.AddTask(NotificationTask{
		Kind:      TaskCourseCompleted,
		TouristID: touristID,
		CourseID:  courseID,
	})
}

// NotifyRewardApproved 奖励批准通知入队
func (p *NotificationPool) NotifyRewardApproved(touristID, claimID string, amount int64) {
	p.AddTask(NotificationTask{
		Kind:      TaskRewardApproved,
		TouristID: touristID,
		ClaimID:   claimID,
		Amount:    amount,
	})
}

// DefaultPool 全局通知池，cmd/server 启动时 Start
var DefaultPool = NewNotificationPool(4, 256)
