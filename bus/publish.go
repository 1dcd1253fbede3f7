package bus

import (
	"encoding/json"

	"ltest-go/orchestrator"
)

// posePacket is the wire form of a published landing_target_pose,
// grounded on the teacher's wsPos DTO in server/udp.go (a small flat
// struct built purely for JSON marshaling, kept separate from the
// internal Pose type).
type posePacket struct {
	TS          int64      `json:"ts"`
	PositionNED [3]float64 `json:"position_ned"`
	VelocityNED [3]float64 `json:"velocity_ned"`
	PositionVar [3]float64 `json:"position_var"`
	VelocityVar [3]float64 `json:"velocity_var"`
	IsStatic    bool       `json:"is_static"`
	RelPosValid bool       `json:"rel_pos_valid"`
	RelVelValid bool       `json:"rel_vel_valid"`
	AbsPosValid bool       `json:"abs_pos_valid"`
	Status      string     `json:"status"`
}

// PublishResult marshals one Tick's Result and broadcasts it to every
// connected websocket client.
func PublishResult(hub *Hub, res orchestrator.Result) {
	pkt := posePacket{
		TS:          res.Pose.Timestamp.UnixMilli(),
		PositionNED: res.Pose.PositionNED,
		VelocityNED: res.Pose.VelocityNED,
		PositionVar: res.Pose.PositionVar,
		VelocityVar: res.Pose.VelocityVar,
		IsStatic:    res.Pose.IsStatic,
		RelPosValid: res.Pose.RelPosValid,
		RelVelValid: res.Pose.RelVelValid,
		AbsPosValid: res.Pose.AbsPosValid,
		Status:      res.Status.String(),
	}
	b, err := json.Marshal(pkt)
	if err != nil {
		return
	}
	hub.Broadcast(b)
}
