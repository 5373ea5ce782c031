package core

import (
	"fmt"
	"math"
)

// earthRadiusKm matches the constant the notification pipeline has always
// used, so distances shown to subscribers stay byte-identical.
const earthRadiusKm = 6373.0

var bearingArrows = []string{"↑", "↗", "→", "↘", "↓", "↙", "←", "↖"}

// HaversineKm returns the great-circle distance between two points in
// kilometers.
func HaversineKm(latFrom, lonFrom, latTo, lonTo float64) float64 {
	latFromRad := degToRad(latFrom)
	latToRad := degToRad(latTo)
	deltaLat := degToRad(latTo - latFrom)
	deltaLon := degToRad(lonTo - lonFrom)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(latFromRad)*math.Cos(latToRad)*math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// BearingArrow maps the initial bearing from one point to another onto
// one of eight compass arrows.
func BearingArrow(latFrom, lonFrom, latTo, lonTo float64) string {
	latFromRad := degToRad(latFrom)
	latToRad := degToRad(latTo)
	deltaLon := degToRad(lonTo - lonFrom)

	y := math.Sin(deltaLon) * math.Cos(latToRad)
	x := math.Cos(latFromRad)*math.Sin(latToRad) -
		math.Sin(latFromRad)*math.Cos(latToRad)*math.Cos(deltaLon)
	bearing := math.Atan2(y, x) * 180 / math.Pi
	bearing = math.Mod(bearing+360, 360)

	sector := int(math.Mod(bearing+22.5, 360) / 45)
	return bearingArrows[sector]
}

// YandexMapsLink builds the map link sent back to users who share their
// location. Coordinates keep five decimals, longitude first.
func YandexMapsLink(lat, lon float64) string {
	return fmt.Sprintf("https://yandex.ru/maps/?pt=%.5f,%.5f&z=11&l=map", lon, lat)
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}
