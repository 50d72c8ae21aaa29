package service

import (
	"errors"
	"tour_verify/internal/domain/user/model"
	"tour_verify/internal/domain/user/repository"
	"tour_verify/internal/pkg/otp"
	"tour_verify/pkg/utils"

	"gorm.io/gorm"
)

var (
	ErrOTPInvalid      = errors.New("invalid or expired otp code")
	ErrUserDisabled    = errors.New("account disabled")
	ErrOperatorPending = errors.New("operator account pending approval")
)

type UserService interface {
	SendOTP(mobile string) error
	LoginOrRegister(mobile, code string, role int) (string, *model.User, error)
	GetByID(id string) (*model.User, error)
	Approve(userID string) error
}

type userService struct {
	repo repository.UserRepository
	otp  otp.OTPService
}

func NewUserService(repo repository.UserRepository, otpService otp.OTPService) UserService {
	return &userService{repo: repo, otp: otpService}
}

func (s *userService) SendOTP(mobile string) error {
	_, err := s.otp.Send(mobile)
	return err
}

// LoginOrRegister 验证码登录，首次登录自动注册
// role 仅在首次登录时生效；景区运营者注册后进入待审核状态，审核通过前不发令牌
func (s *userService) LoginOrRegister(mobile, code string, role int) (string, *model.User, error) {
	if !s.otp.Verify(mobile, code) {
		return "", nil, ErrOTPInvalid
	}

	user, err := s.repo.GetByMobile(mobile)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, err
		}

		// 首次登录，自动注册
		if role != model.RoleTourist && role != model.RoleOperator {
			role = model.RoleTourist
		}
		status := model.StatusApproved
		if role == model.RoleOperator {
			status = model.StatusPending // 运营者需管理员审核
		}

		user = &model.User{
			Mobile: mobile,
			Role:   role,
			Status: status,
		}
		if err := s.repo.Create(user); err != nil {
			return "", nil, err
		}
	}

	if user.Status == model.StatusDisabled {
		return "", nil, ErrUserDisabled
	}
	// 待审核运营者拿不到令牌，审核通过后重新登录
	if user.Role == model.RoleOperator && !user.IsApproved() {
		return "", nil, ErrOperatorPending
	}

	token, _, err := utils.GenerateToken(user.ID, user.Role)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *userService) GetByID(id string) (*model.User, error) {
	return s.repo.GetByID(id)
}

// Approve 管理员审核通过
func (s *userService) Approve(userID string) error {
	return s.repo.UpdateStatus(userID, model.StatusApproved)
}
