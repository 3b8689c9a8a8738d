package service

import (
	"context"
	"fmt"

	"github.com/Sohel-786/die-pattern-sub003/internal/tms/repository"
)

// requireLocationAccess 地点操作权门禁。
// 地点相关写操作（入库、移转）要求用户持有（公司，地点）授权记录。
func requireLocationAccess(ctx context.Context, userRepo *repository.UserRepository, userID, companyID, locationID string) error {
	ok, err := userRepo.HasLocationAccess(ctx, userID, companyID, locationID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: 用户无该地点操作权", ErrForbidden)
	}
	return nil
}
