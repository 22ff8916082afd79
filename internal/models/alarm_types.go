// Fleetwatch - Vehicle Telemetry Sync and Map Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetwatch

package models

import (
	"fmt"
	"sort"
)

// alarmTypeNames is the vendor alarm code catalogue.
var alarmTypeNames = map[int]string{
	1:   "Video Loss",
	2:   "Motion Detection",
	3:   "Blind Detection",
	4:   "HDD/SD Error",
	5:   "IO 1",
	6:   "IO 2",
	7:   "IO 3",
	8:   "IO 4",
	9:   "IO 5",
	10:  "IO 6",
	11:  "IO 7",
	12:  "IO 8",
	13:  "Panic Button",
	14:  "Low Speed",
	15:  "High Speed",
	16:  "Low Voltage",
	17:  "G-Force",
	18:  "Geo-Fence",
	19:  "Unauthorised Ignition",
	20:  "Unauthorised Shutdown",
	21:  "GPS Fail",
	22:  "GPS Antenna Short",
	23:  "GPS Antenna Open",
	24:  "Overspeed",
	25:  "Idle Time",
	26:  "Harsh Acceleration",
	27:  "Harsh Cornering",
	28:  "Harsh Braking",
	29:  "Temperature Alarm",
	30:  "Fuel Alarm",
	31:  "Fuel Theft",
	32:  "Fuel Fill",
	33:  "Power Disconnected",
	34:  "Power Connected",
	35:  "Battery Low",
	36:  "Impact Alarm",
	37:  "SOS",
	38:  "Man Down",
	39:  "External Device Alarm",
	40:  "External Power On",
	41:  "External Power Off",
	42:  "System Power On",
	43:  "System Power Off",
	44:  "White List",
	45:  "Black List",
	46:  "RFID Card",
	47:  "Temperature Error",
	48:  "Acceleration Sensor Error",
	49:  "TTS Error",
	50:  "Camera Error",
	51:  "Voltage Error",
	52:  "Speed Limit",
	53:  "Route Deviation",
	54:  "Enter Area",
	55:  "Exit Area",
	56:  "Road Limit",
	57:  "Dangerous Driving",
	58:  "Driver Fatigue",
	59:  "No Driver",
	60:  "Phone Detection",
	61:  "Smoking Detection",
	62:  "Driver Distraction",
	63:  "Lane Departure",
	64:  "Forward Collision Warning",
	65:  "Pedestrian Collision Warning",
	66:  "Blind Spot",
	67:  "Driver Change",
	68:  "Abnormal Fuel Consumption",
	69:  "VSS Speed",
	70:  "Oil Pressure",
	71:  "Water Temperature",
	72:  "Neutral Safety Switch",
	73:  "Handbrake",
	74:  "Door Open",
	75:  "Seat Belt",
	76:  "Key Switch",
	77:  "Reverse Gear",
	78:  "Left Turn",
	79:  "Right Turn",
	80:  "Work Light",
	81:  "Retarder",
	82:  "Air Pressure",
	83:  "Engine Error",
	84:  "Auxiliary Battery",
	85:  "Emergency Button",
	86:  "Loading",
	87:  "Unloading",
	88:  "Driving Without License",
	89:  "Cumulative Driving Time",
	90:  "Road Maintenance",
	91:  "Fatigue Driving",
	92:  "Overtime Parking",
	93:  "Route Change",
	94:  "VSS Failure",
	95:  "Oil Shortage",
	96:  "Vehicle Theft",
	97:  "Illegal Ignition",
	98:  "Illegal Displacement",
	99:  "Collision Rollover",
	100: "Side Rollover",
	134: "Picture Upload",
	135: "Video Upload",
	136: "IC Card",
	137: "Fingerprint",
	138: "Retina",
	139: "Face Recognition",
	140: "Voice",
	141: "Weight",
	142: "Trailer Connection",
	143: "Trailer Disconnection",
	144: "Passenger Up",
	145: "Passenger Down",
	146: "School Bus",
	147: "Emergency Evacuation",
	148: "Anti-Theft",
	149: "Refueling",
	150: "Driver Hours",
	151: "Custom Alarm",
	152: "Maintenance",
	153: "Diagnostic",
	154: "Eco Driving",
	155: "Green Band",
	156: "Cruise Control",
	157: "Lane Change",
	158: "Tailgating",
	159: "Cornering",
	160: "Acceleration",
	161: "Deceleration",
	162: "Following Distance Monitoring",
	163: "Speeding",
	164: "Yawning Detection",
	165: "Eyes Closed",
	166: "Looking Away",
	167: "Head Down",
	168: "Using Phone",
}

// alarmIntensity weights alarm codes on the heatmap. Unlisted codes weigh defaultIntensity.
var alarmIntensity = map[int]float64{
	1:  0.3, // video loss
	2:  0.2,
	3:  0.2,
	4:  0.4,
	5:  0.5,
	6:  0.5,
	13: 1.0, // panic button
	14: 0.6,
	15: 0.8,
	16: 0.7,
	17: 0.9,
	18: 0.6,
	19: 0.8,
	29: 0.7,
	36: 0.9,
	58: 0.8,
	59: 0.9,
	60: 0.4,
	61: 0.4,
	62: 0.6,
	63: 0.7,
	64: 0.8,
}

const defaultIntensity = 0.5

// AlarmTypeName returns the display name of an alarm code.
func AlarmTypeName(code int) string {
	if name, ok := alarmTypeNames[code]; ok {
		return name
	}
	return fmt.Sprintf("Unknown (%d)", code)
}

// AlarmIntensity returns the heatmap weight of an alarm code in (0, 1].
func AlarmIntensity(code int) float64 {
	if w, ok := alarmIntensity[code]; ok {
		return w
	}
	return defaultIntensity
}

// AlarmTypeCodes returns every catalogued code in ascending order.
func AlarmTypeCodes() []int {
	codes := make([]int, 0, len(alarmTypeNames))
	for code := range alarmTypeNames {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}

// AlarmTypeCount is one row of the alarm-types endpoint.
type AlarmTypeCount struct {
	Type  int    `json:"type"`
	Name  string `json:"name"`
	Count int64  `json:"count"`
}
